package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/service"
)

// NewSnapshotCmd runs a single poll cycle and prints the result
func NewSnapshotCmd(configPath *string) *cobra.Command {
	var (
		status     string
		query      string
		unreadOnly bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch jobs and notifications once and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, _, err := bootstrap(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Stop()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Backend.Timeout)
			defer cancel()

			if _, err := svc.Refresh(ctx); err != nil {
				return fmt.Errorf("failed to fetch snapshot: %w", err)
			}

			st := svc.Status()
			if st.LastError != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", st.LastError)
			}

			out := cmd.OutOrStdout()
			jobs := svc.ListJobs(ctx, service.JobFilter{Status: model.JobStatus(status), Query: query})
			printJobs(out, jobs, time.Now())

			fmt.Fprintln(out)

			notifications := svc.ListNotifications(ctx)
			printNotifications(out, notifications, unreadOnly, time.Now())

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter jobs by status (scheduled,running,completed,failed,cancelled)")
	cmd.Flags().StringVar(&query, "query", "", "Filter jobs by id or jar name")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Show unread notifications only")

	return cmd
}

func printJobs(w io.Writer, jobs []model.Job, now time.Time) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tJAR\tTYPE\tSTATUS\tLAST RUN\tEXECUTION")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.JarName, j.ExecutionType, j.Status, age(j.LastRunAt, now), dash(j.ExecutionTime))
	}
	_ = tw.Flush()
}

func printNotifications(w io.Writer, snap model.NotificationSnapshot, unreadOnly bool, now time.Time) {
	fmt.Fprintf(w, "Notifications: %d unread\n", snap.UnreadCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tREAD\tAGE\tTITLE")
	for _, n := range snap.Notifications {
		if unreadOnly && n.Read {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", n.ID, n.Type, n.Read, age(n.Timestamp, now), n.Title)
	}
	_ = tw.Flush()
}

func age(ts model.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
