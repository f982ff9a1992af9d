package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	calendarApp "social-scheduler/services/calendar/internal/app"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/usecase"

	"github.com/spf13/cobra"
)

type session struct {
	calendarApp.UseCases
	Location      *time.Location
	DefaultUserID string
	close         func()
}

func (s *session) Close() {
	if s.close != nil {
		s.close()
	}
}

type connectFunc func() (*session, error)

type rootOptions struct {
	connect connectFunc
	userID  string
	output  string
}

func newRootCmd(connect connectFunc) *cobra.Command {
	opts := &rootOptions{connect: connect}

	rootCmd := &cobra.Command{
		Use:          "calendarctl",
		Short:        "Inspect calendar days and retry failed platform publishes",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", "", "user id (default DEFAULT_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "text", "output format: json|text")

	rootCmd.AddCommand(newDayCmd(opts))
	rootCmd.AddCommand(newDaysCmd(opts))
	rootCmd.AddCommand(newRetryCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	return rootCmd
}

func (o *rootOptions) open() (*session, string, error) {
	s, err := o.connect()
	if err != nil {
		return nil, "", err
	}
	userID := o.userID
	if userID == "" {
		userID = s.DefaultUserID
	}
	if userID == "" {
		s.Close()
		return nil, "", errors.New("no user: pass --user or set DEFAULT_USER_ID")
	}
	return s, userID, nil
}

func (o *rootOptions) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newDayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show upcoming and live posts of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, userID, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			date := entity.DateOf(time.Now(), s.Location)
			if len(args) == 1 {
				if date, err = entity.ParseDate(args[0]); err != nil {
					return err
				}
			}

			day := s.Calendar.Day(cmd.Context(), userID, date)
			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), day)
			}
			printDay(cmd.OutOrStdout(), day, s.Location)
			return nil
		},
	}
}

func newDaysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "days <year> <month>",
		Short: "List the days of a month holding scheduled posts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil || month < 1 || month > 12 {
				return fmt.Errorf("invalid month %q", args[1])
			}

			s, userID, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			days := s.Calendar.DaysWithPosts(cmd.Context(), userID, year, time.Month(month))
			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), fields{"year": year, "month": month, "days": days})
			}
			parts := make([]string, len(days))
			for i, d := range days {
				parts[i] = strconv.Itoa(d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%04d-%02d: %s\n", year, month, strings.Join(parts, " "))
			return nil
		},
	}
}

func newRetryCmd(opts *rootOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "retry <post-id> <platform>",
		Short: "Republish one post to one failed platform",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, userID, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			outcome, err := s.Retry.Retry(cmd.Context(), userID, usecase.RetryInput{
				PostID:   args[0],
				Platform: args[1],
				Source:   source,
			})
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), fields{"postId": outcome.PostID, "platform": outcome.Platform, "url": outcome.URL})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s to %s: %s\n", outcome.PostID, outcome.Platform, outcome.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", string(entity.SourceScheduledPosts), "collection holding the post: scheduledPosts|livePosts")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <post-id> <platform>",
		Short: "Show the retry state of a post and platform",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, userID, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			state, err := s.Retry.RetryStatus(cmd.Context(), userID, args[0], args[1])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), state)
			}
			if state.URL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state.Phase, state.URL)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), state.Phase)
			}
			return nil
		},
	}
}

type fields map[string]interface{}

func printDay(w io.Writer, day entity.CalendarDay, loc *time.Location) {
	fmt.Fprintf(w, "%s\n", day.Date)

	fmt.Fprintf(w, "Upcoming (%d)\n", len(day.Upcoming))
	for _, v := range day.Upcoming {
		fmt.Fprintf(w, "  %s  %-10s %-9s %s  %s\n", clock(v.ScheduledAt, loc), v.Platform, v.Status, v.ID, v.Title)
	}

	fmt.Fprintf(w, "Live (%d)\n", len(day.Live))
	for _, v := range day.Live {
		line := fmt.Sprintf("  %s  %-10s %-14s %s  %s", clock(v.PublishedAt, loc), v.Platform, v.Source, v.ID, v.Title)
		if len(v.FailedPlatforms) > 0 {
			failed := make([]string, len(v.FailedPlatforms))
			for i, p := range v.FailedPlatforms {
				failed[i] = string(p)
			}
			line += "  failed: " + strings.Join(failed, ",")
		}
		fmt.Fprintln(w, line)
	}
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "--:--"
	}
	return t.In(loc).Format("15:04")
}
