package status

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

const defaultLogLines = 20

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client used to
// attach log tails to failure diagnostics.
type CloudWatchLogsAPI interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// LogTailer fetches the last lines of a log stream.
type LogTailer struct {
	client CloudWatchLogsAPI
	group  string
	lines  int
	logger *slog.Logger
}

// NewLogTailer creates a tailer for the given log group. lines <= 0 uses 20.
func NewLogTailer(client CloudWatchLogsAPI, group string, lines int, logger *slog.Logger) *LogTailer {
	if lines <= 0 {
		lines = defaultLogLines
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTailer{client: client, group: group, lines: lines, logger: logger}
}

// Tail returns the newest lines of stream, oldest first.
func (t *LogTailer) Tail(ctx context.Context, stream string) (string, error) {
	limit := int32(t.lines)
	fromHead := false
	out, err := t.client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  &t.group,
		LogStreamName: &stream,
		Limit:         &limit,
		StartFromHead: &fromHead,
	})
	if err != nil {
		return "", fmt.Errorf("logs: GetLogEvents failed: %w", err)
	}

	lines := make([]string, 0, len(out.Events))
	for _, ev := range out.Events {
		if msg := strings.TrimRight(deref(ev.Message), "\n"); msg != "" {
			lines = append(lines, msg)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// appendTail adds the stream's log tail to detail. Lookup failures are
// logged and leave detail unchanged.
func (t *LogTailer) appendTail(ctx context.Context, stream, detail string) string {
	if t == nil || stream == "" {
		return detail
	}
	tail, err := t.Tail(ctx, stream)
	if err != nil {
		t.logger.Warn("log tail unavailable", "logGroup", t.group, "logStream", stream, "error", err)
		return detail
	}
	if tail == "" {
		return detail
	}
	return joinNonEmpty("\n", detail, tail)
}
