// Command tiercachectl inspects and edits a cache described by a settings file.
//
//	tiercachectl -config cache.yaml info [section]
//	tiercachectl -config cache.yaml stats
//	tiercachectl -config cache.yaml dbsize
//	tiercachectl -config cache.yaml keys 'user:*'
//	tiercachectl -config cache.yaml get user:1
//	tiercachectl -config cache.yaml set -ttl 30s user:1 '{"name":"Ada"}'
//	tiercachectl -config cache.yaml incr visits
//	tiercachectl -config cache.yaml del user:1
//
// TIERCACHE_* environment variables override the file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/backend"
	zapadapter "github.com/unkn0wn-root/tiercache/log/zap"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tiercachectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "settings YAML file")
	envFile := fs.String("env", ".env", "dotenv file with TIERCACHE_* overrides")
	verbose := fs.Bool("v", false, "debug logging")
	timeout := fs.Duration("timeout", 10*time.Second, "overall command timeout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: tiercachectl [flags] info|stats|dbsize|keys|get|set|incr|del [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	zl := newZap(stderr, *verbose)
	defer func() { _ = zl.Sync() }()
	log := zapadapter.New(zl)

	s, err := tiercache.LoadSettings(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "load settings: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	reg := tiercache.NewRegistry(tiercache.WithLogger(log))
	if err := reg.Init(ctx, s); err != nil {
		fmt.Fprintf(stderr, "init cache: %v\n", err)
		return 1
	}
	defer func() { _ = reg.Close(context.Background()) }()
	c, err := reg.Get()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if err := dispatch(ctx, c, fs.Arg(0), fs.Args()[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\n", err)
			return 2
		}
		fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, c *tiercache.Cache, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "info":
		section := ""
		if len(args) > 0 {
			section = args[0]
		}
		raw, err := c.Info(ctx, section)
		if err != nil {
			return err
		}
		printInfo(out, backend.ParseInfo(raw))
		return nil

	case "stats":
		raw, err := c.Info(ctx, "commandstats")
		if err != nil {
			return err
		}
		for _, st := range backend.ParseCommandStats(raw) {
			fmt.Fprintf(out, "%s\t%d\n", st.Name, st.Calls)
		}
		return nil

	case "dbsize":
		n, err := c.DBSize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil

	case "keys":
		pattern := "*"
		if len(args) > 0 {
			pattern = args[0]
		}
		keys, err := c.Keys(ctx, pattern)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get <key>", errUsage)
		}
		v, ok, err := c.GetString(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%q not found", args[0])
		}
		fmt.Fprintln(out, v)
		return nil

	case "set":
		sf := flag.NewFlagSet("set", flag.ContinueOnError)
		sf.SetOutput(io.Discard)
		ttl := sf.Duration("ttl", 0, "entry TTL (0 = backend default)")
		if err := sf.Parse(args); err != nil || sf.NArg() != 2 {
			return fmt.Errorf("%w: set [-ttl dur] <key> <value>", errUsage)
		}
		if *ttl > 0 {
			return c.SetStringTTL(ctx, sf.Arg(0), sf.Arg(1), *ttl)
		}
		return c.SetString(ctx, sf.Arg(0), sf.Arg(1))

	case "incr":
		if len(args) != 1 {
			return fmt.Errorf("%w: incr <key>", errUsage)
		}
		n, err := c.Incr(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil

	case "del":
		if len(args) == 0 {
			return fmt.Errorf("%w: del <key>...", errUsage)
		}
		for _, k := range args {
			if err := c.Del(ctx, k); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func printInfo(out io.Writer, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, m[k])
	}
}

func newZap(w io.Writer, verbose bool) *zap.Logger {
	lvl := zapcore.WarnLevel
	if verbose {
		lvl = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
}
