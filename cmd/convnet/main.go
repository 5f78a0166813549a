// Package main provides the convnet CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/convnet/backend/cpu"
	"github.com/born-ml/convnet/convnet"
	"github.com/born-ml/convnet/internal/gradcheck"
	"github.com/born-ml/convnet/optim"
	"github.com/born-ml/convnet/tensor"
)

const version = "v0.1.0"

var errCheckFailed = errors.New("gradient check failed")

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		fmt.Printf("convnet %s\n", version)
	case "gradcheck":
		err = runGradCheck(args)
	case "score":
		err = runScore(args)
	case "overfit":
		err = runOverfit(args)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		if !errors.Is(err, errCheckFailed) {
			slog.Error("command failed", "cmd", os.Args[1], "err", err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "convnet %s - three-layer convolutional classifier\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  gradcheck  Compare analytic and numeric gradients")
	fmt.Fprintln(w, "  score      Print predicted classes for a random batch")
	fmt.Fprintln(w, "  overfit    Train on a small random batch")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'convnet <command> -h' for command flags.")
}

// common holds the flags every model command accepts.
type common struct {
	config  string
	batch   int
	seed    uint64
	bn      bool
	verbose bool
	workers int
}

func (c *common) register(fs *flag.FlagSet, batch int) {
	fs.StringVar(&c.config, "config", "", "YAML configuration file (default: a small built-in network)")
	fs.IntVar(&c.batch, "batch", batch, "number of random samples")
	fs.Uint64Var(&c.seed, "seed", 1, "seed for parameters and data")
	fs.BoolVar(&c.bn, "bn", false, "enable batch normalization (ignored with -config)")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	fs.IntVar(&c.workers, "workers", 0, "kernel goroutines (0: GOMAXPROCS)")
}

func (c *common) setup() (convnet.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg convnet.Config
	if c.config != "" {
		loaded, err := convnet.LoadConfig(c.config)
		if err != nil {
			return cfg, nil, err
		}
		cfg = loaded
	} else {
		cfg = smallConfig(c.bn)
	}
	if c.seed != 0 {
		cfg.Seed = c.seed
	}
	if c.batch <= 0 {
		return cfg, nil, errors.Errorf("batch must be positive, got %d", c.batch)
	}
	return cfg, logger, nil
}

func (c *common) model(cfg convnet.Config, logger *slog.Logger) (*convnet.Model, error) {
	pc := cpu.DefaultParallelConfig()
	if c.workers > 0 {
		pc.NumWorkers = c.workers
	}
	model, err := convnet.New(cfg, convnet.WithBackend(cpu.NewWithConfig(pc)))
	if err != nil {
		return nil, err
	}

	geom := model.Geometry()
	logger.Info("model",
		"variant", model.Variant(),
		"dtype", cfg.DType,
		"input", fmt.Sprintf("%dx%dx%d", cfg.Input.Channels, cfg.Input.Height, cfg.Input.Width),
		"geometry", geom.String(),
		"params", model.Params().NumElements(),
		"reg", cfg.Reg,
	)
	logger.Debug("architecture\n" + model.String())
	return model, nil
}

// smallConfig is a network small enough for finite differences and quick
// overfitting runs.
func smallConfig(bn bool) convnet.Config {
	cfg := convnet.DefaultConfig()
	cfg.Input = convnet.InputShape{Channels: 3, Height: 8, Width: 8}
	cfg.NumFilters = 4
	cfg.FilterSize = 3
	cfg.HiddenDim = 10
	cfg.NumClasses = 5
	cfg.WeightScale = 0.1
	cfg.UseBatchNorm = bn
	return cfg
}

// randomBatch draws n NCHW samples and uniform labels from seed.
func randomBatch(cfg convnet.Config, n int, seed uint64) (*tensor.RawTensor, []int) {
	src := rand.NewPCG(seed, ^seed)
	x := tensor.Randn(tensor.Shape{n, cfg.Input.Channels, cfg.Input.Height, cfg.Input.Width}, cfg.DType, 1, src)
	r := rand.New(src)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = r.IntN(cfg.NumClasses)
	}
	return x, labels
}

func runGradCheck(args []string) error {
	fs := flag.NewFlagSet("gradcheck", flag.ExitOnError)
	var c common
	c.register(fs, 2)
	tol := fs.Float64("tol", 1e-5, "maximum relative error")
	absTol := fs.Float64("abs-tol", 1e-7, "absolute error accepted regardless of -tol")
	step := fs.Float64("step", gradcheck.DefaultStep, "finite difference step")
	reg := fs.Float64("reg", -1, "override regularization strength")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	cfg.DType = tensor.Float64
	if *reg >= 0 {
		cfg.Reg = *reg
	}

	model, err := c.model(cfg, logger)
	if err != nil {
		return err
	}
	x, labels := randomBatch(cfg, c.batch, cfg.Seed)

	report, err := gradcheck.Check(model.Params().Map(), func() (float64, map[string]*tensor.RawTensor, error) {
		res, err := model.Loss(x, labels, convnet.Train)
		if err != nil {
			return 0, nil, err
		}
		return res.Loss, res.Grads.Map(), nil
	}, *step)
	if err != nil {
		return err
	}

	for _, e := range report {
		logger.Info("gradient", "key", e.Key, "rel_error", e.RelError, "abs_error", e.AbsError, "ok", e.Passed(*tol, *absTol))
	}
	worst := report.Worst()
	if !report.Passed(*tol, *absTol) {
		logger.Error("gradient check failed", "worst", worst.Key, "rel_error", worst.RelError, "tol", *tol)
		return errCheckFailed
	}
	logger.Info("gradient check passed", "worst", worst.Key, "rel_error", worst.RelError)
	return nil
}

func runScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	var c common
	c.register(fs, 4)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	model, err := c.model(cfg, logger)
	if err != nil {
		return err
	}
	x, _ := randomBatch(cfg, c.batch, cfg.Seed+1)

	scores, err := model.Scores(x, convnet.Eval)
	if err != nil {
		return err
	}
	for i, class := range convnet.Argmax(scores) {
		fmt.Printf("%d\t%d\n", i, class)
	}
	return nil
}

func runOverfit(args []string) error {
	fs := flag.NewFlagSet("overfit", flag.ExitOnError)
	var c common
	c.register(fs, 8)
	iters := fs.Int("iters", 100, "training steps")
	method := fs.String("optim", "adam", "optimizer: sgd or adam")
	lr := fs.Float64("lr", 0, "learning rate (0: optimizer default)")
	momentum := fs.Float64("momentum", 0.9, "SGD momentum")
	every := fs.Int("log-every", 10, "log the loss every n steps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}

	var opt optim.Optimizer
	switch *method {
	case "sgd":
		opt = optim.NewSGD(optim.SGDConfig{LR: *lr, Momentum: *momentum})
	case "adam":
		opt = optim.NewAdam(optim.AdamConfig{LR: *lr})
	default:
		return errors.Errorf("unknown optimizer %q", *method)
	}

	model, err := c.model(cfg, logger)
	if err != nil {
		return err
	}
	x, labels := randomBatch(cfg, c.batch, cfg.Seed+1)
	logger.Info("training", "optim", *method, "lr", opt.GetLR(), "iters", *iters, "batch", c.batch)

	for it := 1; it <= *iters; it++ {
		res, err := model.Loss(x, labels, convnet.Train)
		if err != nil {
			return err
		}
		if *every > 0 && (it == 1 || it%*every == 0) {
			logger.Info("step", "iter", it, "loss", res.Loss, "data_loss", res.DataLoss, "reg_loss", res.RegLoss)
		}
		if err := opt.Step(model.Params().Map(), res.Grads.Map()); err != nil {
			return errors.WithMessagef(err, "step %d", it)
		}
	}

	acc, err := model.Accuracy(x, labels)
	if err != nil {
		return err
	}
	logger.Info("done", "train_accuracy", acc)
	return nil
}
