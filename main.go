package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/coreos/pkg/capnslog"
	"github.com/mhbemani/minic/codegen"
	"github.com/mhbemani/minic/compiler"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/mhbemani/minic", "minic")

func setupLogging(verbose bool) {
	capnslog.SetFormatter(capnslog.NewPrettyFormatter(os.Stderr, verbose))
	if verbose {
		capnslog.SetGlobalLogLevel(capnslog.DEBUG)
	} else {
		capnslog.SetGlobalLogLevel(capnslog.WARNING)
	}
}

func printError(err error) {
	if isTerminal(os.Stderr.Fd()) {
		tracerr.PrintSourceColor(err)
	} else {
		tracerr.PrintSource(err)
	}
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "project configuration",
	Value: configFile,
}

var optimizeFlags = []cli.Flag{
	configFlag,
	&cli.BoolFlag{
		Name:  "no-optimize",
		Usage: "skip branch folding and loop unrolling",
	},
	&cli.IntFlag{
		Name:  "unroll-limit",
		Usage: "largest loop trip count to unroll",
	},
}

// options merges minic.yaml with the command line, which wins.
func options(c *cli.Context) (projectConfig, compiler.Options, error) {
	cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return cfg, compiler.Options{}, err
	}
	if err := cfg.checkVersion(compiler.Version); err != nil {
		return cfg, compiler.Options{}, err
	}

	opts := cfg.options()
	if c.Bool("no-optimize") {
		opts.Optimize = false
	}
	if c.IsSet("unroll-limit") {
		opts.UnrollLimit = c.Int("unroll-limit")
	}
	return cfg, opts, nil
}

func sourceFile(c *cli.Context) (string, error) {
	if f := c.String("file"); f != "" {
		return f, nil
	}
	if f := c.Args().First(); f != "" {
		return f, nil
	}
	return "", tracerr.New("no source file given")
}

func compileFile(path string, opts compiler.Options) (*compiler.Result, error) {
	res, err := compiler.CompileFile(path, opts)
	if err != nil {
		return nil, err
	}
	for _, change := range res.Changes {
		plog.Debugf("%s", change)
	}
	return res, nil
}

func main() {
	app := &cli.App{
		Name:    "minic",
		Usage:   "compile minic programs to LLVM IR",
		Version: compiler.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log compiler stages",
			},
		},
		Before: func(c *cli.Context) error {
			setupLogging(c.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "emit",
				Usage:     "print the LLVM IR of a program",
				ArgsUsage: "<source>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "source file",
					},
					&cli.BoolFlag{
						Name:  "ast",
						Usage: "print the optimized syntax tree instead",
					},
				}, optimizeFlags...),
				Action: func(c *cli.Context) error {
					_, opts, err := options(c)
					if err != nil {
						return err
					}
					file, err := sourceFile(c)
					if err != nil {
						return err
					}

					res, err := compileFile(file, opts)
					if err != nil {
						return err
					}

					if c.Bool("ast") {
						repr.Println(res.Program)
						return nil
					}
					fmt.Print(res.IR())
					return nil
				},
			},
			{
				Name:      "build",
				Usage:     "build an executable with clang",
				ArgsUsage: "<source>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "executable to write",
					},
				}, optimizeFlags...),
				Action: func(c *cli.Context) error {
					cfg, opts, err := options(c)
					if err != nil {
						return err
					}
					file, err := sourceFile(c)
					if err != nil {
						return err
					}

					out := c.String("output")
					if out == "" {
						out = cfg.Name
					}
					if out == "" {
						out = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
					}

					res, err := compileFile(file, opts)
					if err != nil {
						return err
					}

					fi, err := ioutil.TempFile("", "minic-*.ll")
					if err != nil {
						return tracerr.Wrap(err)
					}
					defer os.Remove(fi.Name())
					defer fi.Close()
					if _, err = io.Copy(fi, strings.NewReader(res.IR())); err != nil {
						return tracerr.Wrap(err)
					}

					cmd := exec.Command(cfg.clang(), "-o", out, fi.Name())
					cmd.Stdout = os.Stdout
					cmd.Stderr = os.Stderr
					plog.Infof("running %s", strings.Join(cmd.Args, " "))

					return tracerr.Wrap(cmd.Run())
				},
			},
			{
				Name:      "watch",
				Usage:     "recompile a program whenever it changes",
				ArgsUsage: "<source>",
				Flags:     optimizeFlags,
				Action: func(c *cli.Context) error {
					_, opts, err := options(c)
					if err != nil {
						return err
					}
					file := c.Args().First()
					if file == "" {
						return tracerr.New("no source file given")
					}

					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
					defer stop()

					return watchFile(ctx, file, func() {
						res, err := compileFile(file, opts)
						if err != nil {
							printError(err)
							return
						}
						fmt.Print(res.IR())
					})
				},
			},
			{
				Name:      "init",
				Usage:     "create " + configFile,
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return tracerr.New("no project name provided")
					}
					return writeDefaultConfig(configFile, name)
				},
			},
			{
				Name:      "symbols",
				Usage:     "dump the variables recorded in an emitted .ll file",
				ArgsUsage: "<file.ll>",
				Action: func(c *cli.Context) error {
					syms, err := codegen.ReadSymbolsFile(c.Args().First())
					if err != nil {
						return tracerr.Wrap(err)
					}
					repr.Println(syms)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}
