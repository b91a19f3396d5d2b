package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-tinytensor/internal/arrowio"
	"github.com/23skdu/longbow-tinytensor/internal/config"
	"github.com/23skdu/longbow-tinytensor/internal/logger"
	"github.com/23skdu/longbow-tinytensor/internal/tensor"
)

var sampleValues = []float32{1.5, 2.0, 3.5, 4.0}

func main() {
	cfg := config.Default()
	scale := flag.Float64("scale", float64(cfg.Scale), "Quantization scale")
	flag.IntVar(&cfg.ZeroPoint, "zero-point", cfg.ZeroPoint, "Quantization zero point")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (console, json)")
	flag.Int64Var(&cfg.MaxArrayBytes, "max-bytes", cfg.MaxArrayBytes, "Largest buffer a single array may own")
	flag.BoolVar(&cfg.WideAccumulator, "wide", cfg.WideAccumulator, "Accumulate matrix products in float64")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Address to serve Prometheus metrics (empty disables)")
	flag.StringVar(&cfg.ArrowOut, "arrow-out", cfg.ArrowOut, "Directory to write every demo array as an Arrow IPC stream")
	flag.Parse()
	cfg.Scale = float32(*scale)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	tensor.SetMaxBytes(cfg.MaxArrayBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var served chan error
	if cfg.MetricsEnabled() {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			logger.Log.Error("metrics listen failed", "addr", cfg.MetricsAddr, "error", err)
			os.Exit(1)
		}
		logger.Log.Info("metrics serving", "addr", ln.Addr().String())
		served = make(chan error, 1)
		go func() { served <- serveMetrics(ctx, ln) }()
	}

	if err := run(os.Stdout, cfg); err != nil {
		logger.Log.Error("demo failed", "error", err)
		os.Exit(1)
	}

	// The counters are only useful if something can scrape them, so keep
	// serving until the process is told to stop.
	if served != nil {
		logger.Log.Info("demo complete, serving metrics until interrupted", "addr", cfg.MetricsAddr)
		if err := <-served; err != nil {
			logger.Log.Error("metrics server error", "error", err)
			os.Exit(1)
		}
	}
}

// serveMetrics exposes the Prometheus registry on ln until ctx is done, then
// shuts the server down gracefully.
func serveMetrics(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type stage struct {
	name  string
	label string
	array *tensor.Array
}

// run executes the demonstration sequence and releases every array it creates.
func run(w io.Writer, cfg config.Config) error {
	fmt.Fprintln(w, "TinyML Tensor Demo")

	var stages []stage
	defer func() {
		for _, s := range stages {
			s.array.Release()
		}
	}()
	keep := func(name, label string, a *tensor.Array) {
		stages = append(stages, stage{name: name, label: label, array: a})
	}

	a, err := tensor.New(2, 2, tensor.Float32)
	if err != nil {
		return fmt.Errorf("create float32 array: %w", err)
	}
	keep("float32", "Float32 Tensor", a)
	if err := a.Fill(sampleValues); err != nil {
		return fmt.Errorf("fill sample: %w", err)
	}
	if err := show(w, a, "Float32 Tensor", true); err != nil {
		return err
	}

	h, err := tensor.Reduce(a)
	if err != nil {
		return fmt.Errorf("reduce: %w", err)
	}
	keep("reduced", "Reduced Float Tensor", h)
	if err := show(w, h, "Reduced Float Tensor", true); err != nil {
		return err
	}

	q, err := tensor.Quantize(a, cfg.Scale, cfg.ZeroPoint)
	if err != nil {
		return fmt.Errorf("quantize: %w", err)
	}
	keep("int8", "INT8 Quantized Tensor", q)
	if err := show(w, q, "INT8 Quantized Tensor", true); err != nil {
		return err
	}

	d, err := tensor.Dequantize(q)
	if err != nil {
		return fmt.Errorf("dequantize: %w", err)
	}
	keep("dequantized", "Dequantized Tensor", d)
	if err := show(w, d, "Dequantized Tensor", true); err != nil {
		return err
	}

	c, err := tensor.New(a.Rows(), a.Cols(), tensor.Float32)
	if err != nil {
		return fmt.Errorf("create output array: %w", err)
	}
	keep("matmul", "Matrix Product", c)
	matmul := tensor.MatMul
	if cfg.WideAccumulator {
		matmul = tensor.MatMulWide
	}
	if err := matmul(a, a, c); err != nil {
		return fmt.Errorf("matmul: %w", err)
	}
	if err := show(w, c, "Matrix Product", false); err != nil {
		return err
	}

	if cfg.ArrowOut != "" {
		if err := exportArrow(cfg.ArrowOut, stages); err != nil {
			return err
		}
	}

	logger.Log.Info("demo complete", "arrays", len(stages), "live_bytes", tensor.AllocatedBytes())
	return nil
}

func show(w io.Writer, a *tensor.Array, label string, withSize bool) error {
	if err := tensor.Render(w, a, label); err != nil {
		return fmt.Errorf("render %s: %w", label, err)
	}
	if withSize {
		fmt.Fprintf(w, "Memory: %d bytes\n", tensor.ByteSize(a))
	}
	return nil
}

func exportArrow(dir string, stages []stage) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create arrow output dir: %w", err)
	}
	mem := memory.NewGoAllocator()
	for _, s := range stages {
		path := filepath.Join(dir, s.name+".arrow")
		if err := writeArrowFile(path, mem, s.array); err != nil {
			return err
		}
		logger.Log.Info("wrote arrow stream", "path", path, "label", s.label)
	}
	return nil
}

func writeArrowFile(path string, mem memory.Allocator, a *tensor.Array) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := arrowio.WriteStream(f, mem, a); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
