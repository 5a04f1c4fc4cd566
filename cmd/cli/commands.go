package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/and161185/geocam/internal/camera"
	"github.com/and161185/geocam/internal/convert"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/pipeline"
)

// ------- flag helpers -------

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errw)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", errUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// optFloat is a float flag that remembers whether it was set.
type optFloat struct{ v *float64 }

func (o *optFloat) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'f', -1, 64)
}

func (o *optFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%q is not a finite number", s)
	}
	o.v = &f
	return nil
}

// readSecret falls back to a terminal prompt when a password flag is empty.
func (a *app) readSecret(val *string, label string) error {
	if *val != "" {
		return nil
	}
	fmt.Fprintf(a.errw, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	*val = strings.TrimRight(line, "\r\n")
	return nil
}

// ------- commands -------

// cmdRegister creates an account. It does not log in.
func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password (prompted when empty)")
	confirm := fs.String("confirm", "", "password confirmation (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.readSecret(pass, "Password"); err != nil {
		return err
	}
	if err := a.readSecret(confirm, "Confirm password"); err != nil {
		return err
	}

	if err := a.auth.Register(ctx, *name, *email, *pass, *confirm); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "registered; run `geocam login` to sign in")
	return nil
}

// cmdLogin authenticates and persists the session.
func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.readSecret(pass, "Password"); err != nil {
		return err
	}

	s, err := a.auth.Login(ctx, *email, *pass)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as user %s\n", s.UserID)
	return nil
}

// cmdLogout revokes the token and clears the stored session.
func (a *app) cmdLogout(ctx context.Context, args []string) error {
	if err := parse(a.flags("logout"), args); err != nil {
		return err
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

// cmdWhoami prints the stored user id. The token is never printed.
func (a *app) cmdWhoami(ctx context.Context, args []string) error {
	if err := parse(a.flags("whoami"), args); err != nil {
		return err
	}
	s, err := a.session.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if s == nil {
		return errs.ErrAuthenticationRequired
	}
	fmt.Fprintln(a.out, s.UserID)
	return nil
}

// cmdCapture opens the camera, takes one photo and uploads it with the current position.
func (a *app) cmdCapture(ctx context.Context, args []string) error {
	fs := a.flags("capture")
	photo := fs.String("photo", "", "source image for the back camera")
	front := fs.String("front", "", "source image for the front camera (defaults to -photo)")
	facing := fs.String("facing", "", "camera direction: back|front")
	toggle := fs.Bool("toggle", false, "flip the camera direction before shooting")
	var lat, lon optFloat
	fs.Var(&lat, "lat", "latitude (with -lon)")
	fs.Var(&lon, "lon", "longitude (with -lat)")
	fix := fs.String("fix", "", "JSON fix file written by a GPS daemon")
	noLoc := fs.Bool("no-location", false, "upload without coordinates")
	cameraOK := fs.Bool("camera-ok", false, "grant camera access without asking")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *photo == "" {
		return fmt.Errorf("%w: capture: -photo is required", errUsage)
	}

	loc, err := a.locator(locationFlags{lat: lat.v, lon: lon.v, fixFile: *fix, off: *noLoc})
	if err != nil {
		return err
	}

	var perm camera.PermissionRequester = camera.StaticPermission(true)
	if !*cameraOK {
		perm = cameraPrompt{prompter{in: a.in, out: a.errw, question: "Allow GeoCam to use the camera?"}}
	}
	dev := camera.NewDevice(&camera.FileSensor{Source: *photo, FrontSource: *front, Dir: a.cfg.Capture.Dir}, perm, a.log)
	if *facing != "" {
		if err := dev.SetFacing(model.Facing(*facing)); err != nil {
			return fmt.Errorf("%w: capture: %v", errUsage, err)
		}
	}
	if *toggle {
		dev.Toggle()
	}
	if err := dev.Open(ctx); err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()

	res, err := pipeline.New(loc, dev, a.session, a.api, a.log).CaptureAndUpload(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "uploaded %s (%s)\n", res.PhotoPath, humanize.Bytes(uint64(res.Size)))
	if res.PhotoID != "" {
		fmt.Fprintf(a.out, "photo id: %s\n", res.PhotoID)
	}
	fmt.Fprintf(a.out, "location: %s\n", formatPosition(res.Position))
	return nil
}

// cmdPhotos lists the caller's recent uploads.
func (a *app) cmdPhotos(ctx context.Context, args []string) error {
	fs := a.flags("photos")
	limit := fs.Int("limit", 0, "max photos (server default when 0)")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("%w: photos: -limit must not be negative", errUsage)
	}

	s, err := a.session.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if s == nil {
		return errs.ErrAuthenticationRequired
	}

	path := "/photos"
	if *limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(*limit)}}.Encode()
	}
	resp, err := a.api.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	var list convert.PhotoList
	if err := resp.DecodeJSON(&list); err != nil {
		return err
	}

	if *asJSON {
		printJSON(a.out, list)
		return nil
	}
	if len(list.Photos) == 0 {
		fmt.Fprintln(a.out, "no photos yet")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPLOADED\tLOCATION\tPATH")
	for _, p := range list.Photos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, uploadedAgo(p.CreatedAt), formatPosition(p.Position()), p.PhotoPath)
	}
	return tw.Flush()
}

// ------- output -------

func formatPosition(p *model.GeoPosition) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%.6f, %.6f", p.Latitude, p.Longitude)
}

func uploadedAgo(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
