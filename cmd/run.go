package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/services"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	runOnce      bool
	runAckPolicy string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume and execute jobs from the queue",
	Long: `Start the worker loop.

The worker long-polls the queue, runs each job in a fresh container and
uploads every non-empty output file to the job's destination folder.
Jobs run one at a time. A failed job is logged and the loop continues.

Acknowledgement policies:
  - before_dispatch : delete each message as soon as it is received (default)
  - after_success   : delete only once the job completed or was skipped as malformed

Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runWorker,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single poll cycle and exit")
	runCmd.Flags().StringVar(&runAckPolicy, "ack-policy", "", "Override queue.ack_policy (before_dispatch, after_success)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	policyName := appConfig.Queue.AckPolicy
	if runAckPolicy != "" {
		policyName = runAckPolicy
	}
	policy, err := services.ParseAckPolicy(policyName)
	if err != nil {
		return err
	}

	consumer := services.NewConsumerService(jobQueue, dispatchService, services.ConsumerConfig{
		MaxMessages: appConfig.Queue.MaxMessages,
		Wait:        appConfig.Wait(),
		Policy:      policy,
	}, logger)

	ctx, stop := signal.NotifyContext(getContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runOnce {
		results, err := consumer.Poll(ctx)
		for _, r := range results {
			fmt.Println(describePoll(r))
		}
		return err
	}

	fmt.Println(ui.FormatRocket(fmt.Sprintf("Worker listening (%s backend, %s)", appConfig.Backend, policy)))
	return consumer.Run(ctx)
}

// describePoll renders one poll result for the terminal
func describePoll(r services.PollResult) string {
	switch r.State {
	case services.PollEmpty:
		return ui.FormatMuted("No messages")
	case services.PollSkipped:
		reason := ""
		if r.Dispatch != nil {
			reason = r.Dispatch.Reason
		}
		return ui.FormatWarning(fmt.Sprintf("Skipped %s: %s", ui.ShortID(r.MessageID), reason))
	case services.PollFailed:
		return ui.FormatError(fmt.Sprintf("Job %s failed: %v", ui.ShortID(r.MessageID), r.Err))
	default:
		uploaded := 0
		if r.Dispatch != nil && r.Dispatch.Result != nil {
			uploaded = len(r.Dispatch.Result.Uploaded)
		}
		return ui.FormatSuccess(fmt.Sprintf("Job %s completed, %d file(s) uploaded", ui.ShortID(r.MessageID), uploaded))
	}
}
