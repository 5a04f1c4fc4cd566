package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/geocam/internal/apiclient"
	"github.com/and161185/geocam/internal/auth"
	"github.com/and161185/geocam/internal/config"
	"github.com/and161185/geocam/internal/location"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/securestore"
)

// app holds what every command needs: config, the session store and the API client.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	in   *bufio.Reader
	out  io.Writer
	errw io.Writer

	store   securestore.Store
	session *auth.Reader
	api     *apiclient.Client
	auth    *auth.Service
}

func newApp(cfgPath, apiURL string, verbose bool, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.BaseURL = apiURL
	}

	log, err := newLogger(verbose, cfg.LogLevel, stderr)
	if err != nil {
		return nil, err
	}

	store, err := securestore.NewStore(securestore.StoreType(cfg.Store.Driver), securestore.WithPath(cfg.Store.Path))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	reader := auth.NewReader(store)
	opts := []apiclient.Option{apiclient.WithTokenSource(reader), apiclient.WithLogger(log)}
	if cfg.Timeout > 0 {
		opts = append(opts, apiclient.WithTimeout(time.Duration(cfg.Timeout)))
	}
	api, err := apiclient.New(cfg.BaseURL, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		in:      bufio.NewReader(stdin),
		out:     stdout,
		errw:    stderr,
		store:   store,
		session: reader,
		api:     api,
		auth:    auth.NewService(store, api, log),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close session store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// newLogger keeps the CLI quiet unless -v is given.
func newLogger(verbose bool, level string, w io.Writer) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	lvl := zapcore.DebugLevel
	if level != "" {
		l, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		lvl = l
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// prompter asks a yes/no question on the terminal. Anything but yes is a refusal.
type prompter struct {
	in       *bufio.Reader
	out      io.Writer
	question string
}

func (p prompter) ask(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", p.question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type locationPrompt struct{ prompter }

func (p locationPrompt) RequestForeground(ctx context.Context) (bool, error) { return p.ask(ctx) }

type cameraPrompt struct{ prompter }

func (p cameraPrompt) RequestCamera(ctx context.Context) (bool, error) { return p.ask(ctx) }

// noSource is used when permission can be granted but nothing reports a position.
type noSource struct{}

func (noSource) CurrentPosition(context.Context) (model.GeoPosition, error) {
	return model.GeoPosition{}, location.ErrNoFix
}

// locationFlags are the capture command's overrides of the location config.
type locationFlags struct {
	lat, lon *float64
	fixFile  string
	off      bool
}

// locator builds the resolver for one capture from config and flag overrides.
func (a *app) locator(f locationFlags) (*location.Resolver, error) {
	lc := a.cfg.Location
	switch {
	case f.off:
		lc.Mode = config.LocationOff
	case f.lat != nil || f.lon != nil:
		if f.lat == nil || f.lon == nil {
			return nil, fmt.Errorf("%w: -lat and -lon must be given together", errUsage)
		}
		lc.Mode, lc.Latitude, lc.Longitude = config.LocationStatic, f.lat, f.lon
	case f.fixFile != "":
		lc.Mode, lc.FixFile = config.LocationFile, f.fixFile
	}

	static := func() location.PositionSource {
		if lc.Latitude == nil || lc.Longitude == nil {
			return noSource{}
		}
		return location.StaticSource{Position: model.GeoPosition{Latitude: *lc.Latitude, Longitude: *lc.Longitude}}
	}
	file := func() location.PositionSource {
		if lc.FixFile == "" {
			return noSource{}
		}
		return location.FileSource{Path: lc.FixFile, MaxAge: time.Duration(lc.MaxAge)}
	}

	var src location.PositionSource = noSource{}
	switch lc.Mode {
	case config.LocationStatic:
		src = static()
	case config.LocationFile:
		src = file()
	case config.LocationPrompt:
		// prompt mode reads whichever source is configured
		if src = static(); src == (noSource{}) {
			src = file()
		}
	}

	var perm location.PermissionRequester
	switch lc.Mode {
	case config.LocationOff:
		perm = location.AlwaysDeny
	case config.LocationPrompt:
		perm = locationPrompt{prompter{in: a.in, out: a.errw, question: "Allow GeoCam to use your location?"}}
	default:
		perm = location.AlwaysGrant
	}

	notify := location.NotifierFunc(func(msg string) { fmt.Fprintln(a.errw, msg) })
	return location.NewResolver(perm, src, notify, a.log), nil
}
