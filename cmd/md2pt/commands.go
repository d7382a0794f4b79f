package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	portabletext "github.com/derickschaefer/go-portabletext"
	"github.com/derickschaefer/go-portabletext/assets"
	"github.com/derickschaefer/go-portabletext/config"
	"github.com/derickschaefer/go-portabletext/convert"
	"github.com/derickschaefer/go-portabletext/markdown"
)

// converter builds a markdown tokenizer and conversion options from the
// configuration, command flags take precedence.
func converter(env *localEnv, cmd *cli.Command) (*markdown.Tokenizer, []convert.Option, error) {
	cfg := env.Cfg.Conversion

	names := cfg.Extensions
	if ext := cmd.StringSlice("ext"); len(ext) > 0 {
		names = ext
	}
	ext, err := markdown.ParseExtensions(names)
	if err != nil {
		return nil, nil, err
	}

	keysName := cfg.Keys
	if k := cmd.String("keys"); len(k) > 0 {
		keysName = k
	}
	keys := convert.KeysByName(keysName, cfg.KeyLength)
	if keys == nil {
		return nil, nil, fmt.Errorf("unknown key generator %q", keysName)
	}

	opts := []convert.Option{
		convert.WithKeys(keys),
		convert.WithResolver(assets.New(env.Cfg.Assets, env.Log)),
		convert.WithLogger(env.Log.Named("convert")),
	}
	return markdown.New(ext), opts, nil
}

func readSource(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return name == "-"
}

// loadDocument reads SOURCE converting markdown on the fly.
func loadDocument(env *localEnv, cmd *cli.Command) (portabletext.Document, error) {
	if cmd.Args().Len() != 1 {
		return nil, errors.New("exactly one SOURCE is expected")
	}
	name := cmd.Args().First()
	data, err := readSource(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	if !isMarkdown(name) {
		doc, err := portabletext.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unable to decode '%s': %w", name, err)
		}
		return doc, nil
	}
	tok, opts, err := converter(env, cmd)
	if err != nil {
		return nil, err
	}
	res, err := tok.Convert(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to convert '%s': %w", name, err)
	}
	return res.Document(), nil
}

// outputName derives the JSON file name for a markdown source.
func outputName(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := slug.Make(base)
	if len(name) == 0 {
		name = "document"
	}
	return name + ".json"
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("no SOURCE specified")
	}
	var dst string
	if len(args) > 1 {
		dst, args = args[len(args)-1], args[:len(args)-1]
		if err := os.MkdirAll(dst, 0755); err != nil {
			return fmt.Errorf("unable to create destination directory '%s': %w", dst, err)
		}
	}

	tok, opts, err := converter(env, cmd)
	if err != nil {
		return err
	}

	var errs error
	for _, src := range args {
		if err := convertOne(env, cmd, tok, opts, src, dst); err != nil {
			env.Log.Error("Conversion failed", zap.String("source", src), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, err))
		}
	}
	return errs
}

func convertOne(env *localEnv, cmd *cli.Command, tok *markdown.Tokenizer, opts []convert.Option, src, dst string) error {
	data, err := readSource(src)
	if err != nil {
		return err
	}
	res, err := tok.Convert(data, opts...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	indent := ""
	if cmd.Bool("indent") {
		indent = "  "
	}
	if err := portabletext.EncodeIndent(&buf, res.Document(), indent); err != nil {
		return err
	}

	if len(dst) == 0 {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}

	out := filepath.Join(dst, outputName(src))
	if _, err := os.Stat(out); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("destination '%s' exists, use --overwrite", out)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return err
	}
	env.Log.Info("Converted",
		zap.String("source", src),
		zap.String("destination", out),
		zap.Int("blocks", len(res)),
		zap.String("input", humanize.Bytes(uint64(len(data)))),
		zap.String("output", humanize.Bytes(uint64(buf.Len()))))
	return nil
}

func runText(ctx context.Context, cmd *cli.Command) error {
	doc, err := loadDocument(envFromContext(ctx), cmd)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, portabletext.PlainText(doc))
	return err
}

func runLinks(ctx context.Context, cmd *cli.Command) error {
	doc, err := loadDocument(envFromContext(ctx), cmd)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, l := range portabletext.Links(doc) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Block, l.Type, l.Href, l.Text)
	}
	return w.Flush()
}

func runTOC(ctx context.Context, cmd *cli.Command) error {
	doc, err := loadDocument(envFromContext(ctx), cmd)
	if err != nil {
		return err
	}
	for _, h := range portabletext.Headings(doc, int(cmd.Int("max-level"))) {
		fmt.Fprintf(os.Stdout, "%s%s\n", strings.Repeat("  ", h.Level-1), h.Text)
	}
	return nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	doc, err := loadDocument(env, cmd)
	if err != nil {
		return err
	}
	opts := portabletext.ValidationOptions{
		RequireKeys:      cmd.Bool("require-keys"),
		CheckMarkDefRefs: !cmd.Bool("no-refs"),
		AllowEmptyText:   cmd.Bool("allow-empty-text"),
	}
	if err := portabletext.ValidateDocument(doc, opts); err != nil {
		for _, e := range multierr.Errors(err) {
			env.Log.Warn("Invalid node", zap.Error(e))
		}
		return fmt.Errorf("document has %d problem(s)", len(multierr.Errors(err)))
	}
	env.Log.Info("Document is valid", zap.Int("blocks", len(doc)))
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
