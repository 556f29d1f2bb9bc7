// Command cli is the terminal front end of the workflow board: it drives
// the same API the web client uses, through the shared client package.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/Phabs974/ListePCMontage/client"
	"github.com/Phabs974/ListePCMontage/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	baseURL := os.Getenv("PCMONTAGE_API")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	session, err := client.NewSession()
	if err != nil {
		fatal(err)
	}
	api := client.New(baseURL, session)
	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		runLogin(ctx, api)
	case "logout":
		if err := api.Logout(); err != nil {
			fatal(err)
		}
		fmt.Println("Logged out")
	case "me":
		user := mustLoadUser(ctx, api)
		fmt.Printf("%s (%s)\n", user.Username, user.Role)
	case "orders":
		runOrders(ctx, api)
	case "toggle":
		runToggle(ctx, api)
	case "set-status":
		runSetStatus(ctx, api)
	case "create-order":
		runCreateOrder(ctx, api)
	case "import":
		runImport(ctx, api)
	case "users":
		runUsers(ctx, api)
	case "create-user":
		runCreateUser(ctx, api)
	case "set-role":
		runSetRole(ctx, api)
	case "delete-user":
		runDeleteUser(ctx, api)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cli <command> [flags]

commands:
  login        -username -password
  logout
  me
  orders       [-view all|to_prepare|to_build|to_deliver|done] [-q text] [-watch]
  toggle       -id <order-id> -field prepared|built|delivered
  set-status   -id <order-id> [-status text]        (empty clears)
  create-order -invoice -client -product -sold-at "2006-01-02T15:04" [-store]
  import       -file invoice.pdf
  users
  create-user  -username -password [-role VENDOR]
  set-role     -id <user-id> -role ADMIN|VENDOR|BUILDER
  delete-user  -id <user-id>`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// mustLoadUser fetches the identity behind the stored token; on failure the
// token is already cleared, so just ask the user to log in again
func mustLoadUser(ctx context.Context, api *client.Client) *models.User {
	user, err := api.LoadUser(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Not logged in, run: cli login")
		os.Exit(1)
	}
	return user
}

func runLogin(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(os.Args[2:])
	if *username == "" || *password == "" {
		fatal(fmt.Errorf("-username and -password are required"))
	}

	if _, err := api.Login(ctx, *username, *password); err != nil {
		fatal(err)
	}
	user, err := api.Me(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
}

func runOrders(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	view := fs.String("view", "all", "workflow view")
	query := fs.String("q", "", "search text")
	watch := fs.Bool("watch", false, "keep the board refreshed until interrupted")
	fs.Parse(os.Args[2:])

	user := mustLoadUser(ctx, api)
	board := client.NewDashboard(api, user)

	if err := board.SetView(ctx, models.View(*view)); err != nil {
		fatal(err)
	}
	if *query != "" {
		if err := board.SetSearch(ctx, *query); err != nil {
			fatal(err)
		}
	}
	printBoard(board)

	if !*watch {
		return
	}

	board.OnUpdate = func() {
		printBoard(board)
	}
	board.StartAutoRefresh(client.AutoRefreshInterval)
	defer board.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
}

func printBoard(board *client.Dashboard) {
	counts := board.Counts()
	fmt.Printf("\nTotal %d | A préparer %d | A monter %d | A livrer %d\n\n",
		counts.Total, counts.ToPrepare, counts.ToBuild, counts.ToDeliver)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tPRODUIT\tCLIENT\tP\tM\tL\tSTATUT")
	for _, order := range board.Orders() {
		status := ""
		if order.Status != nil {
			status = *order.Status
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			order.ID,
			order.SoldAt.Local().Format("02/01/2006 15:04"),
			order.ProductName,
			order.ClientName,
			mark(order.Prepared),
			mark(order.Built),
			mark(order.Delivered),
			status,
		)
	}
	w.Flush()
}

func mark(set bool) string {
	if set {
		return "x"
	}
	return "-"
}

func runToggle(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	id := fs.String("id", "", "order id")
	field := fs.String("field", "", "prepared, built or delivered")
	fs.Parse(os.Args[2:])

	user := mustLoadUser(ctx, api)
	board := client.NewDashboard(api, user)
	order := findOrder(ctx, api, *id)

	if err := board.ToggleField(ctx, order, *field); err != nil {
		fatal(err)
	}
	printBoard(board)
}

func runSetStatus(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	id := fs.String("id", "", "order id")
	status := fs.String("status", "", "status text, empty to clear")
	fs.Parse(os.Args[2:])

	user := mustLoadUser(ctx, api)
	board := client.NewDashboard(api, user)
	order := findOrder(ctx, api, *id)

	if err := board.SetStatus(ctx, order, *status); err != nil {
		fatal(err)
	}
	printBoard(board)
}

func findOrder(ctx context.Context, api *client.Client, id string) models.Order {
	orderID, err := uuid.Parse(id)
	if err != nil {
		fatal(fmt.Errorf("invalid order id %q", id))
	}
	orders, err := api.ListOrders(ctx, client.ListOrdersOptions{View: models.ViewAll})
	if err != nil {
		fatal(err)
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order
		}
	}
	fatal(fmt.Errorf("order %s not found", id))
	return models.Order{}
}

func runCreateOrder(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("create-order", flag.ExitOnError)
	invoice := fs.String("invoice", "", "invoice number")
	clientName := fs.String("client", "", "client name")
	product := fs.String("product", "", "product name")
	soldAt := fs.String("sold-at", "", "sale date, local time (2006-01-02T15:04)")
	store := fs.String("store", "", "store (optional)")
	fs.Parse(os.Args[2:])

	soldAtTime, err := time.ParseInLocation("2006-01-02T15:04", *soldAt, time.Local)
	if err != nil {
		fatal(fmt.Errorf("invalid -sold-at %q", *soldAt))
	}

	draft := client.OrderDraft{
		InvoiceNumber: *invoice,
		ClientName:    *clientName,
		ProductName:   *product,
		SoldAt:        soldAtTime,
	}
	if *store != "" {
		draft.Store = store
	}

	user := mustLoadUser(ctx, api)
	board := client.NewDashboard(api, user)
	if err := board.CreateOrder(ctx, draft); err != nil {
		fatal(err)
	}
	fmt.Printf("Created order %s\n", *invoice)
}

func runImport(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "invoice PDF")
	fs.Parse(os.Args[2:])

	f, err := os.Open(*file)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	mustLoadUser(ctx, api)
	result, err := api.ImportInvoice(ctx, *file, f)
	if err != nil {
		fatal(err)
	}

	switch result.Status {
	case models.ImportCreated:
		fmt.Printf("Imported order %s (%s)\n", result.Order.InvoiceNumber, result.Order.ProductName)
	case models.ImportAlreadyExists:
		fmt.Printf("Invoice %s already imported\n", result.Order.InvoiceNumber)
	default:
		fmt.Printf("Import failed: %s\n", result.Errors["code"])
	}
}

func runUsers(ctx context.Context, api *client.Client) {
	mustLoadUser(ctx, api)
	users, err := api.ListUsers(ctx)
	if err != nil {
		fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE")
	for _, user := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.Username, user.Role)
	}
	w.Flush()
}

func runCreateUser(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	role := fs.String("role", string(models.RoleVendor), "role")
	fs.Parse(os.Args[2:])

	mustLoadUser(ctx, api)
	user, err := api.CreateUser(ctx, client.UserDraft{
		Username: *username,
		Password: *password,
		Role:     models.Role(*role),
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created %s user %s\n", user.Role, user.Username)
}

func runSetRole(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("set-role", flag.ExitOnError)
	id := fs.String("id", "", "user id")
	role := fs.String("role", "", "new role")
	fs.Parse(os.Args[2:])

	userID, err := uuid.Parse(*id)
	if err != nil {
		fatal(fmt.Errorf("invalid user id %q", *id))
	}

	mustLoadUser(ctx, api)
	user, err := api.UpdateUser(ctx, userID, map[string]interface{}{"role": *role})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("%s is now %s\n", user.Username, user.Role)
}

func runDeleteUser(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("delete-user", flag.ExitOnError)
	id := fs.String("id", "", "user id")
	fs.Parse(os.Args[2:])

	userID, err := uuid.Parse(*id)
	if err != nil {
		fatal(fmt.Errorf("invalid user id %q", *id))
	}

	mustLoadUser(ctx, api)
	if err := api.DeleteUser(ctx, userID); err != nil {
		fatal(err)
	}
	fmt.Println("Deleted")
}
