// Command console is the production-floor client: workers move orders
// through production and request materials, admins also decide requests.
// Customers may sign in to follow their own orders.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"tailorshop-be/internal/client"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/order"
	"tailorshop-be/internal/store"
	"tailorshop-be/internal/user"
	"tailorshop-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: console [-api URL] [-session FILE] [-v] <command> [args]

commands:
  login -email E [-password P] [-portal worker|admin|customer]
  whoami
  logout
  orders [-status S] [-step S]
  step <order-id> <Queue|Cutting|Stitching|Finishing|Ready>
  status <order-id> <Pending|In Progress|Shipped|Delivered|Cancelled>
  materials
  request-material -material M -qty N [-unit U] [-note T]
  decide <request-id> <approved|rejected>
`

var (
	errUsage     = errors.New("bad usage")
	errSignedOut = errors.New("not signed in, run: console login")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	out      io.Writer
	store    *store.Store
	signedIn bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	apiURL := fs.String("api", envOr("TAILORSHOP_API", "http://localhost:8080"), "API base URL")
	sessionPath := fs.String("session", envOr("TAILORSHOP_SESSION", store.DefaultSessionPath()), "session file")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if *verbose {
		defer logger.Replace(verboseLogger(stderr))()
	} else {
		defer logger.Replace(zap.NewNop())()
	}

	file := store.NewSessionFile(*sessionPath)
	persisted, err := file.Load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	api := client.New(*apiURL, client.WithToken(persisted.Token))
	st := store.New(api,
		store.WithSessionFile(file),
		store.WithCollections(store.ForRole(persisted.Role)...),
	)
	a := &app{out: stdout, store: st, signedIn: persisted.UserID != ""}

	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stderr, usage)
		return 2
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.store.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "orders":
		return a.orders(ctx, args)
	case "step":
		return a.step(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "materials":
		return a.materials(ctx)
	case "request-material":
		return a.requestMaterial(ctx, args)
	case "decide":
		return a.decide(ctx, args)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// session hydrates what the saved role may read and resolves the signed-in
// user.
func (a *app) session(ctx context.Context) (user.Session, error) {
	if !a.signedIn {
		return nil, errSignedOut
	}
	if err := a.store.Hydrate(ctx); err != nil {
		if isAuthError(err) {
			return nil, errSignedOut
		}
		return nil, err
	}
	sess, err := a.store.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	if user.IsAnonymous(sess) {
		return nil, errSignedOut
	}
	return sess, nil
}

func isAuthError(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("TAILORSHOP_PASSWORD"), "password")
	portal := fs.String("portal", string(user.RoleWorker), "worker, admin or customer")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: login needs -email and -password", errUsage)
	}

	sess, err := a.store.Login(ctx, *email, *password, user.Role(*portal))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", sess.Current().Name, sess.Role())
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	u := sess.Current()
	line := fmt.Sprintf("%s <%s> %s", u.Name, u.Email, sess.Role())
	if spec := utils.PtrString(u.Specialization); spec != "" {
		line += ", " + spec
	}
	fmt.Fprintln(a.out, line)
	return nil
}

func (a *app) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	status := fs.String("status", "", "only orders with this status")
	step := fs.String("step", "", "only orders at this production step")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if _, err := a.session(ctx); err != nil {
		return err
	}
	orders, err := a.store.Orders()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tCUSTOMER\tSTATUS\tSTEP\tDUE")
	for _, o := range orders {
		if *status != "" && !strings.EqualFold(string(o.Status), *status) {
			continue
		}
		if *step != "" && !strings.EqualFold(string(o.ProductionStep), *step) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderNumber, o.CustomerName, o.Status, o.ProductionStep, o.DueAmount.StringFixed(2))
	}
	return tw.Flush()
}

func (a *app) step(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: step <order-id> <step>", errUsage)
	}
	step := order.ProductionStep(args[1])
	if !step.Valid() {
		return fmt.Errorf("%w: unknown step %q", errUsage, args[1])
	}
	if _, err := a.session(ctx); err != nil {
		return err
	}

	o, err := a.store.UpdateOrderStep(ctx, args[0], step)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", o.OrderNumber, o.ProductionStep)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: status <order-id> <status>", errUsage)
	}
	status := order.Status(args[1])
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errUsage, args[1])
	}
	if _, err := a.session(ctx); err != nil {
		return err
	}

	o, err := a.store.UpdateOrderStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", o.OrderNumber, o.Status)
	return nil
}

func (a *app) materials(ctx context.Context) error {
	if _, err := a.session(ctx); err != nil {
		return err
	}
	list, err := a.store.MaterialRequests()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORKER\tMATERIAL\tQTY\tSTATUS")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\n",
			m.ID, m.WorkerName, m.Material, m.Quantity.String(), m.Unit, m.Status)
	}
	return tw.Flush()
}

func (a *app) requestMaterial(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request-material", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("material", "", "what is needed")
	qty := fs.String("qty", "", "how much")
	unit := fs.String("unit", "pcs", "unit of quantity")
	note := fs.String("note", "", "free text for the admin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	quantity, err := decimal.NewFromString(*qty)
	if *name == "" || err != nil {
		return fmt.Errorf("%w: request-material needs -material and a numeric -qty", errUsage)
	}

	if _, err := a.session(ctx); err != nil {
		return err
	}
	m, err := a.store.RequestMaterial(ctx, material.CreateInput{
		Material: *name,
		Quantity: quantity,
		Unit:     *unit,
		Note:     *note,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "requested %s %s %s (%s)\n", m.Quantity.String(), m.Unit, m.Material, m.ID)
	return nil
}

func (a *app) decide(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: decide <request-id> <approved|rejected>", errUsage)
	}
	decision := material.Status(args[1])
	if !decision.Decision() {
		return fmt.Errorf("%w: decision must be approved or rejected", errUsage)
	}
	if _, err := a.session(ctx); err != nil {
		return err
	}

	m, err := a.store.DecideMaterial(ctx, args[0], decision)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", m.Material, m.Status)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func verboseLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}
