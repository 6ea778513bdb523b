package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/vietddude/faultline/internal/fault"
)

var (
	classifyCode        string
	classifyDescription string
	classifyRetryDelay  time.Duration
	classifyAPI         bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a failure from its status code and description",
	Example: `  faultctl classify --code ABORTED --retry-delay 1.001s
  faultctl classify --code NOT_FOUND --description "Session not found: projects/p/instances/i/databases/d/sessions/s"`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyCode, "code", "UNKNOWN", "status code name (NOT_FOUND) or number (5)")
	classifyCmd.Flags().StringVar(&classifyDescription, "description", "", "status description sent by the server")
	classifyCmd.Flags().DurationVar(&classifyRetryDelay, "retry-delay", 0, "attach a RetryInfo side channel with this delay")
	classifyCmd.Flags().BoolVar(&classifyAPI, "api", false, "treat the failure as an API error (no side channel)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	c, err := parseCode(classifyCode)
	if err != nil {
		return err
	}

	var fe *fault.Error
	if classifyAPI {
		fe = fault.FromAPIFailure(c, classifyDescription)
	} else {
		raw, err := encodeRetryInfo(classifyRetryDelay)
		if err != nil {
			return err
		}
		fe = fault.FromTransportFailure(c, classifyDescription, raw)
	}

	printClassification(cmd.OutOrStdout(), fe)
	return nil
}

// parseCode accepts canonical names (NOT_FOUND), the gRPC-Go spelling
// (NotFound, Canceled) and plain numbers.
func parseCode(s string) (codes.Code, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		if _, ok := code.Code_name[int32(n)]; !ok {
			return 0, fmt.Errorf("unknown status code %d", n)
		}
		return codes.Code(n), nil
	}

	name := strings.ToUpper(s)
	if v, ok := code.Code_value[name]; ok {
		return codes.Code(v), nil
	}
	for v := codes.OK; v <= codes.Unauthenticated; v++ {
		if strings.EqualFold(v.String(), s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown status code %q", s)
}

func encodeRetryInfo(d time.Duration) ([]byte, error) {
	if d <= 0 {
		return nil, nil
	}
	raw, err := proto.Marshal(&errdetails.RetryInfo{RetryDelay: durationpb.New(d)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode retry info: %w", err)
	}
	return raw, nil
}

func printClassification(out io.Writer, fe *fault.Error) {
	delay := "none"
	if d, ok := fe.RetryAfter(); ok {
		delay = fmt.Sprintf("%dms (%s)", fe.RetryDelay, d)
	}
	resource := fe.Resource
	if resource == "" {
		resource = "-"
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "KIND\t%s\n", fe.Kind)
	_, _ = fmt.Fprintf(w, "CODE\t%s\n", fault.CodeName(fe.Code))
	_, _ = fmt.Fprintf(w, "RETRYABLE\t%t\n", fe.Retryable)
	_, _ = fmt.Fprintf(w, "RETRY DELAY\t%s\n", delay)
	_, _ = fmt.Fprintf(w, "RESOURCE\t%s\n", resource)
	_, _ = fmt.Fprintf(w, "MESSAGE\t%s\n", fe.Message)
	_ = w.Flush()
}
