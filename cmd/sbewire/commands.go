package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/sbewire/internal/batch"
	"github.com/danmuck/sbewire/internal/config"
	"github.com/danmuck/sbewire/internal/logging"
	"github.com/danmuck/sbewire/internal/observability"
	"github.com/danmuck/sbewire/internal/protocol/frame"
	"github.com/danmuck/sbewire/internal/protocol/message"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	logging.ConfigureRuntime()
	logging.SetLevel(logging.ResolveLevel(cfg.LogLevel))
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}
	return cfg, nil
}

func serveMetrics(addr string) {
	r := observability.NewRouter(log.Logger)
	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := r.Run(addr); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

func runEncode(args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (toml)")
	out := fs.String("out", "-", "output path, - for stdout")
	fromTask := fs.Uint("from-task", 0, "barrier fromTaskNum")
	toTask := fs.Uint("to-task", 0, "barrier toTaskNum")
	replicaVersion := fs.Uint("replica-version", 0, "replica version for barrier and container")
	replica := fs.String("replica", "", "barrier replica name")
	fromPeer := fs.Uint("from-peer", 0, "container fromPeerNum")
	toTasks := fs.String("to-tasks", "", "comma-separated container toTaskNums (up to 8)")
	count := fs.Int("count", 1, "number of envelopes to write")
	compress := fs.Bool("compress", false, "lz4-compress frame bodies")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *compress {
		cfg.Compress = true
	}
	if *count <= 0 {
		return fmt.Errorf("count must be positive: %d", *count)
	}
	if *fromTask > 0xFFFF || *toTask > 0xFFFF || *fromPeer > 0xFFFF || *replicaVersion > 0xFFFFFFFF {
		return errors.New("numeric flag exceeds its field width")
	}
	tasks, err := parseTasks(*toTasks)
	if err != nil {
		return err
	}

	env := message.Envelope{
		Container: message.MessageContainer{
			ReplicaVersion: uint32(*replicaVersion),
			FromPeerNum:    uint16(*fromPeer),
			ToTaskNums:     tasks,
		},
		Barrier: message.Barrier{
			FromTaskNum:    uint16(*fromTask),
			ToTaskNum:      uint16(*toTask),
			ReplicaVersion: uint32(*replicaVersion),
			Replica:        *replica,
		},
	}
	items := make([]message.Envelope, *count)
	for i := range items {
		items[i] = env
	}

	w, err := openOutput(*out, stdout)
	if err != nil {
		return err
	}
	defer closeInto(&err, w)

	codec, err := batch.New(cfg.Workers)
	if err != nil {
		return err
	}
	defer codec.Release()

	buf, regions, err := codec.EncodeEnvelopes(context.Background(), items)
	if err != nil {
		return err
	}
	h := schema.MessageContainer.Header()
	for _, r := range regions {
		f := frame.Frame{Header: h, Flags: cfg.Flags(), Body: buf[r.Offset : r.Offset+r.Length]}
		if err := frame.WriteFrame(w, f, cfg.Limits()); err != nil {
			observability.RecordError(observability.DirectionEncode, err)
			return err
		}
	}
	log.Info().Int("frames", len(regions)).Bool("compress", cfg.Compress).Msg("encode done")
	return nil
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (toml)")
	in := fs.String("in", "-", "input path, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	r := stdin
	if *in != "-" {
		file, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}

	frames := 0
	for {
		f, err := frame.ReadFrame(r, cfg.Limits())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			observability.RecordError(observability.DirectionDecode, err)
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		m, err := f.Decode()
		if err != nil {
			observability.RecordError(observability.DirectionDecode, err)
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		observability.RecordMessage(f.Header.TemplateID, observability.DirectionDecode, len(f.Body))
		if err := printMessage(stdout, frames, m); err != nil {
			return err
		}
		frames++
	}
	log.Info().Int("frames", frames).Msg("decode done")
	return nil
}

func runConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	output := fs.String("output", "", "write template to path instead of stdout")
	validate := fs.String("validate", "", "validate an existing config file")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *validate != "" {
		if _, err := config.Load(*validate); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "validated config at %s\n", *validate)
		return nil
	}
	if *output != "" {
		if err := config.WriteTemplate(*output, *force); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote config template to %s\n", *output)
		return nil
	}
	tmpl, err := config.Template(config.Default())
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, tmpl)
	return err
}

func printMessage(w io.Writer, idx int, m message.Message) error {
	switch v := m.(type) {
	case message.Barrier:
		_, err := fmt.Fprintf(w, "frame=%d %s\n", idx, formatBarrier(v))
		return err
	case message.MessageContainer:
		inner, err := message.DecodePayloadBarrier(v.Payload)
		payload := formatBarrier(inner)
		if err != nil {
			payload = fmt.Sprintf("opaque(%d bytes)", len(v.Payload))
		}
		_, err = fmt.Fprintf(w, "frame=%d MessageContainer replicaVersion=%d fromPeerNum=%d toTaskNums=%v payload={%s}\n",
			idx, v.ReplicaVersion, v.FromPeerNum, v.ToTaskNums, payload)
		return err
	default:
		_, err := fmt.Fprintf(w, "frame=%d %s\n", idx, m.Template().Name)
		return err
	}
}

func formatBarrier(b message.Barrier) string {
	return fmt.Sprintf("Barrier fromTaskNum=%d toTaskNum=%d replicaVersion=%d replica=%q",
		b.FromTaskNum, b.ToTaskNum, b.ReplicaVersion, b.Replica)
}

func parseTasks(raw string) ([schema.ToTaskNumsLength]uint16, error) {
	var tasks [schema.ToTaskNumsLength]uint16
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tasks, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > len(tasks) {
		return tasks, fmt.Errorf("to-tasks: at most %d values, got %d", len(tasks), len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return tasks, fmt.Errorf("to-tasks[%d]: %w", i, err)
		}
		tasks[i] = uint16(v)
	}
	return tasks, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	return os.Create(path)
}

// closeInto closes c and reports its error through errp unless an earlier
// error is already set.
func closeInto(errp *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("close output: %w", cerr)
	}
}
