package mcp

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/internal/executor"
	"github.com/shirenchuang/pcli2-mcp/internal/tools"
)

const fallbackMIMEType = "application/octet-stream"

// ShaperOptions client profile and limits the messages refer to
type ShaperOptions struct {
	// InlineImages is false for clients that cannot render image blocks;
	// images then travel as data: URLs in a text block.
	InlineImages   bool
	Timeout        time.Duration
	MaxOutputBytes int64
}

// Shaper turns execution outcomes into tool results
type Shaper struct {
	opts ShaperOptions
}

// NewShaper creates a shaper
func NewShaper(opts ShaperOptions) *Shaper {
	return &Shaper{opts: opts}
}

// ShapeInput everything known about one finished call
type ShapeInput struct {
	Tool       *tools.Tool
	Invocation tools.Invocation
	Result     *executor.Result
	// Err is set when there is no Result, e.g. a spawn failure
	Err    error
	Format string
}

// Shape builds the tool result. Every error result names the exact
// command that was attempted.
func (s *Shaper) Shape(in ShapeInput) *MCPToolResult {
	program := in.Invocation.Program

	if in.Err != nil || in.Result == nil {
		err := in.Err
		if err == nil {
			err = errors.New("no result")
		}
		var spawnErr *executor.SpawnError
		if errors.As(err, &spawnErr) {
			return s.failure(in, fmt.Sprintf("%s could not be started: %v", program, spawnErr.Err))
		}
		return s.failure(in, fmt.Sprintf("%s failed: %v", program, err))
	}

	res := in.Result
	switch {
	case res.TimedOut:
		return s.failure(in, fmt.Sprintf("%s timed out after %s and was terminated", program, s.opts.Timeout))
	case res.Canceled:
		return s.failure(in, fmt.Sprintf("%s was terminated because the request was canceled", program))
	case res.ExitCode == executor.ExitTerminated:
		return s.failure(in, fmt.Sprintf("%s was terminated by a signal", program))
	case res.ExitCode != 0:
		return s.failure(in, fmt.Sprintf("%s exited with code %d", program, res.ExitCode))
	}

	if in.Tool != nil && in.Tool.Output == tools.OutputBinary {
		return s.binary(in)
	}
	return s.text(in)
}

func (s *Shaper) text(in ShapeInput) *MCPToolResult {
	format := in.Format
	if format == "" {
		format = "text"
	}

	content := []MCPContent{{
		Type: ContentText,
		Text: string(in.Result.Stdout),
		Meta: map[string]interface{}{"format": format},
	}}
	if in.Result.StdoutTruncated {
		content = append(content, MCPContent{
			Type: ContentText,
			Text: s.truncationNotice(),
			Meta: map[string]interface{}{"truncated": true},
		})
	}

	return &MCPToolResult{Content: content}
}

func (s *Shaper) binary(in ShapeInput) *MCPToolResult {
	data := in.Result.Stdout
	if in.Result.StdoutTruncated {
		return s.failure(in, fmt.Sprintf("%s produced more than %s of binary output; a partial image is not returned",
			in.Invocation.Program, humanize.IBytes(uint64(s.opts.MaxOutputBytes))))
	}
	if len(data) == 0 {
		return s.failure(in, fmt.Sprintf("%s produced no output", in.Invocation.Program))
	}

	mimeType := detectMIMEType(data, in.Tool.MIMEType)
	encoded := base64.StdEncoding.EncodeToString(data)
	meta := map[string]interface{}{"bytes": len(data)}

	if s.opts.InlineImages && strings.HasPrefix(mimeType, "image/") {
		return &MCPToolResult{Content: []MCPContent{{
			Type:     ContentImage,
			Data:     encoded,
			MimeType: mimeType,
			Meta:     meta,
		}}}
	}

	if mimeType == "" {
		mimeType = fallbackMIMEType
	}
	meta["mimeType"] = mimeType
	return &MCPToolResult{Content: []MCPContent{{
		Type: ContentText,
		Text: "data:" + mimeType + ";base64," + encoded,
		Meta: meta,
	}}}
}

// detectMIMEType prefers what the bytes say when they are a recognised
// image; otherwise it falls back to the declared type, which may be "".
func detectMIMEType(data []byte, declared string) string {
	detected, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	detected = strings.TrimSpace(detected)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return declared
}

// failure builds an error result carrying the message, the command and
// whatever the process wrote.
func (s *Shaper) failure(in ShapeInput, message string) *MCPToolResult {
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\ncommand: ")
	b.WriteString(in.Invocation.String())

	if res := in.Result; res != nil {
		if len(res.Stderr) > 0 {
			b.WriteString("\nstderr:\n")
			b.Write(res.Stderr)
		}
		if len(res.Stdout) > 0 && (in.Tool == nil || in.Tool.Output != tools.OutputBinary) {
			b.WriteString("\nstdout:\n")
			b.Write(res.Stdout)
		}
		if res.Truncated() {
			b.WriteString("\n")
			b.WriteString(s.truncationNotice())
		}
	}

	return &MCPToolResult{
		Content: []MCPContent{{Type: ContentText, Text: b.String()}},
		IsError: true,
	}
}

func (s *Shaper) truncationNotice() string {
	return fmt.Sprintf("[output truncated: only the first %s of each stream was captured]", humanize.IBytes(uint64(s.opts.MaxOutputBytes)))
}
