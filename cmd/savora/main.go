// Package main is a terminal client for the restaurant API. It drives the
// SDK end to end: sign in, browse the menu, manage the cart, place orders.
// Credentials persist across runs in the state file.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"savora/internal/client"
	"savora/internal/guard"
	"savora/internal/models"
	"savora/internal/platform/config"
	"savora/internal/platform/logger"
	"savora/internal/pricing"
	"savora/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.New()

	sessions := session.NewStore(
		session.WithPersister(session.NewFileStore(cfg.StatePath)),
		session.WithLogger(log),
	)
	if err := sessions.Hydrate(); err != nil {
		log.Warn("could not restore saved session", "error", err)
	}

	opts := []client.Option{client.WithLogger(log)}
	if addr := os.Getenv("SAVORA_METRICS_ADDR"); addr != "" {
		opts = append(opts, client.WithMetrics())
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}
	api := client.New(cfg, sessions, opts...)
	routes := guard.New(sessions, session.ScopeUser, cfg.SignInPath)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "menu":
		err = runMenu(ctx, api)
	case "login":
		err = runLogin(ctx, api, os.Args[2:])
	case "signup":
		err = runSignup(ctx, api, os.Args[2:])
	case "logout":
		api.Logout(ctx)
		fmt.Println("signed out")
	case "whoami":
		err = runWhoami(api)
	case "cart":
		if err = requireSignIn(routes, "/cart"); err == nil {
			err = runCart(ctx, api, os.Args[2:])
		}
	case "order":
		if err = requireSignIn(routes, "/checkout"); err == nil {
			err = runOrder(ctx, api)
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: savora <command> [flags]

commands:
  menu                     list categories and products
  login -email -password   sign in as a customer
  signup -name -email -password
  logout                   sign out and forget credentials
  whoami                   show the current session
  cart show                print the cart with totals
  cart add -product -qty   add a product to the cart
  cart remove -product     remove a product from the cart
  order                    place an order from the cart`)
}

// requireSignIn maps the route guard onto the terminal: a redirect means
// the user has to log in first.
func requireSignIn(routes *guard.Guard, path string) error {
	switch routes.Evaluate(path).Decision {
	case guard.DecisionAllow:
		return nil
	default:
		return fmt.Errorf("%s needs a signed-in customer; run: savora login", path)
	}
}

// runMenu fetches categories and products in parallel; both land in the
// cache so a subsequent command within the process reuses them.
func runMenu(ctx context.Context, api *client.Client) error {
	var (
		products   []models.Product
		categories []models.Category
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = api.Products(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = api.Categories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range categories {
		fmt.Printf("%s\n", c.Name)
		for _, p := range products {
			if p.Category.ID() != c.ID {
				continue
			}
			stock := ""
			if !p.InStock {
				stock = "  (out of stock)"
			}
			fmt.Printf("  %-24s %8s%s\n", p.Name, pricing.FormatAmount(p.Price), stock)
		}
	}
	return nil
}

func runLogin(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	user, err := api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runSignup(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("signup requires -name, -email and -password")
	}

	user, err := api.Signup(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", user.Name)
	return nil
}

func runWhoami(api *client.Client) error {
	sessions := api.Sessions()
	for _, scope := range []session.Scope{session.ScopeUser, session.ScopeAdmin} {
		sessions.CheckExpiry(scope)
		if user, ok := sessions.CurrentUser(scope); ok {
			fmt.Printf("%s: %s <%s>\n", scope, user.Name, user.Email)
		} else {
			fmt.Printf("%s: not signed in\n", scope)
		}
	}
	return nil
}

func runCart(ctx context.Context, api *client.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cart requires a subcommand: show, add, remove")
	}
	switch args[0] {
	case "show":
		cart, err := api.Cart(ctx)
		if err != nil {
			return err
		}
		return printCart(api, cart)
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ExitOnError)
		product := fs.String("product", "", "product id")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *product == "" {
			return fmt.Errorf("cart add requires -product")
		}
		cart, err := api.AddToCart(ctx, *product, *qty)
		if err != nil {
			return err
		}
		return printCart(api, cart)
	case "remove":
		fs := flag.NewFlagSet("cart remove", flag.ExitOnError)
		product := fs.String("product", "", "product id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *product == "" {
			return fmt.Errorf("cart remove requires -product")
		}
		cart, err := api.RemoveFromCart(ctx, *product)
		if err != nil {
			return err
		}
		return printCart(api, cart)
	default:
		return fmt.Errorf("unknown cart subcommand %q", args[0])
	}
}

func runOrder(ctx context.Context, api *client.Client) error {
	order, err := api.CreateOrder(ctx, models.CreateOrderRequest{})
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed: %s (status %s)\n",
		order.ID, pricing.FormatAmount(order.Total), order.Status)
	return nil
}

func printCart(api *client.Client, cart models.Cart) error {
	if len(cart.Lines) == 0 {
		fmt.Println("cart is empty")
		return nil
	}
	for _, line := range cart.Lines {
		fmt.Printf("  %dx %-24s %8s\n",
			line.Qty, line.Product.Name, pricing.FormatAmount(line.Subtotal()))
	}
	totals := api.CartTotals(cart)
	fmt.Printf("  %s\n", strings.Repeat("-", 34))
	fmt.Printf("  subtotal %8s\n", pricing.FormatAmount(totals.Subtotal))
	fmt.Printf("  tax      %8s\n", pricing.FormatAmount(totals.Tax))
	fmt.Printf("  total    %8s\n", pricing.FormatAmount(totals.Total))
	return nil
}
