package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/client"
	"github.com/hackgods/clinic-booking/internal/config"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInvalid     = 2
	exitConflict    = 3
	exitNotFound    = 4
	exitUnavailable = 5
)

type globalOptions struct {
	APIBaseURL string
	JSON       bool
	Timeout    time.Duration
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.APIBaseURL, o.Timeout)
}

func (o *globalOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Browse clinic availability and manage appointments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.APIBaseURL, "api", config.ClientBaseURL(), "Booking API base URL")
	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output JSON")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")

	root.AddCommand(
		newClinicsCmd(opts),
		newCalendarCmd(opts),
		newSlotsCmd(opts),
		newBookCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newCancelCmd(opts),
		newCompleteCmd(opts),
		newRescheduleCmd(opts),
	)

	return root
}

// ExitCode maps API failures onto distinct process exit codes.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest:
			return exitInvalid
		case http.StatusConflict:
			return exitConflict
		case http.StatusNotFound:
			return exitNotFound
		case http.StatusServiceUnavailable:
			return exitUnavailable
		}
	}
	return exitFailure
}
