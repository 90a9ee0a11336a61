package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joshmeranda/resourcefilter/pkg/controller"
	"github.com/joshmeranda/resourcefilter/pkg/filter"
	"github.com/joshmeranda/resourcefilter/pkg/source"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// kubeForConfig is replaced in tests to avoid connecting to a real cluster.
var kubeForConfig = source.NewKubeForConfig

// Kube prints the names of the cluster objects which match the filter.
func Kube(ctx *cli.Context) error {
	logger := newLogger(ctx).Named("kube")

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	f, err := compileFilter(ctx, config, logger)
	if err != nil {
		return err
	}

	kube, err := kubeForConfig(ctx.String("kubeconfig"))
	if err != nil {
		return err
	}

	gvr := source.ParseResource(ctx.String("resource"), ctx.String("group"), ctx.String("version"))

	if ctx.Bool("watch") {
		return watch(ctx, kube, gvr, f, logger)
	}

	records, err := kube.List(ctx.Context, gvr, ctx.String("namespace"), ctx.String("selector"))
	if err != nil {
		return err
	}

	logger.Debugf("listed %d %s", len(records), gvr.String())

	for _, record := range records {
		matched, err := f.Evaluate(record)
		if err != nil {
			return fmt.Errorf("could not evaluate '%s': %w", source.ObjectName(record), err)
		}

		if matched {
			fmt.Fprintln(ctx.App.Writer, source.ObjectName(record))
		}
	}

	return nil
}

// watch prints the kind of change and name of every object matching the filter as it is added, updated, or deleted
// until the process is interrupted or the app's context is done.
func watch(ctx *cli.Context, kube *source.Kube, gvr schema.GroupVersionResource, f *filter.Filter, logger *zap.SugaredLogger) error {
	writerMu := &sync.Mutex{}

	c, err := controller.NewController(kube.Client(), gvr, controller.Options{
		Filter:    f,
		Logger:    logger.Named("controller"),
		Namespace: ctx.String("namespace"),
		Selector:  ctx.String("selector"),
		Resync:    ctx.Duration("resync"),
		OnMatch: func(m controller.Match) {
			writerMu.Lock()
			defer writerMu.Unlock()

			fmt.Fprintf(ctx.App.Writer, "%s %s\n", m.Kind, m.Name)
		},
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	signalCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx.Int("workers")); err != nil {
		return fmt.Errorf("could not start controller: %w", err)
	}

	<-signalCtx.Done()

	if err := c.Stop(); err != nil {
		return fmt.Errorf("could not stop controller: %w", err)
	}

	return nil
}
