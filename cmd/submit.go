package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	submitImage  string
	submitCmdArg string
	submitSrc    string
	submitDst    string
	submitUser   string
	submitDryRun bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Enqueue a job",
	Long: `Build a job descriptor and send it to the queue.

Example:
  ccw submit --image thumbnailer --cmd "convert in.png -resize 50% out.png" \
    --src <file-id> --dst <folder-id>

Use --dry-run to print the descriptor without sending it.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitImage, "image", "", "Image (build context) to run")
	submitCmd.Flags().StringVar(&submitCmdArg, "cmd", "", "Shell command run inside the container")
	submitCmd.Flags().StringVar(&submitSrc, "src", "", "Entry id of the input file")
	submitCmd.Flags().StringVar(&submitDst, "dst", "", "Entry id of the destination folder")
	submitCmd.Flags().StringVar(&submitUser, "user", "", "Notification recipient")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Print the descriptor instead of sending it")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	job := domain.NewJob(submitImage, submitCmdArg, submitSrc, submitDst)
	job.User = submitUser

	if err := job.Validate(); err != nil {
		return err
	}

	if submitDryRun {
		pretty, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode job: %w", err)
		}
		fmt.Println(highlightJSON(string(pretty)))
		return nil
	}

	ctx := getContext()

	// Catch typos before the worker does
	if _, err := catalogService.GetFile(ctx, job.Src); err != nil {
		return fmt.Errorf("input file %s: %w", job.Src, err)
	}
	if _, err := catalogService.GetFolder(ctx, job.Dst); err != nil {
		return fmt.Errorf("destination folder %s: %w", job.Dst, err)
	}

	body, err := job.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	id, err := jobQueue.Send(ctx, body)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	fmt.Println(ui.FormatSuccess("Job submitted"))
	fmt.Println(ui.RenderKeyValue("Message", id))
	fmt.Println(ui.RenderKeyValue("Image", job.Image))
	fmt.Println(ui.RenderKeyValue("Command", job.Cmd))
	return nil
}

// highlightJSON applies terminal syntax highlighting to JSON
func highlightJSON(content string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.TTY16m

	var buf strings.Builder
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	if err := formatter.Format(&buf, style, iterator); err != nil {
		return content
	}

	return buf.String()
}
