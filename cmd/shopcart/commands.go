package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/nikolayk812/shopcart/internal/app"
	"github.com/nikolayk812/shopcart/internal/checkout"
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/order"
)

type cli struct {
	app *app.App
	out io.Writer
}

type command func(c *cli, ctx context.Context, name string, args []string) error

var commands = map[string]command{
	"show":     (*cli).show,
	"add":      (*cli).add,
	"update":   (*cli).update,
	"remove":   (*cli).remove,
	"clear":    (*cli).clear,
	"login":    (*cli).login,
	"logout":   (*cli).logout,
	"checkout": (*cli).checkout,
	"orders":   (*cli).orders,
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) show(_ context.Context, name string, args []string) error {
	if err := c.flags(name).Parse(args); err != nil {
		return err
	}

	if user, ok := c.app.Session.User(); ok {
		fmt.Fprintf(c.out, "[%s] %s\n", user.Initial(), user.DisplayName())
	}

	snapshot := c.app.Cart.Snapshot()
	if snapshot.IsEmpty() {
		fmt.Fprintln(c.out, "Your cart is empty")
		return nil
	}

	c.printCart(snapshot)
	return nil
}

func (c *cli) add(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	qty := fs.Int("qty", 1, "quantity to add")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("add [-qty N] <product-id>: %w", errUsage)
	}

	product, err := c.app.API.GetProduct(ctx, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("API.GetProduct: %w", err)
	}
	if product.Stock < 1 {
		return fmt.Errorf("product[%s] is out of stock", product.ID)
	}

	n := min(max(*qty, 1), product.Stock)
	c.app.Cart.AddItem(ctx, product, n)

	fmt.Fprintf(c.out, "Added %d x %s, %d items in cart\n", n, product.Name, c.app.Cart.TotalItems())
	return nil
}

func (c *cli) update(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("update <product-id> <quantity>: %w", errUsage)
	}

	qty, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("quantity[%s] is not a number", fs.Arg(1))
	}

	c.app.Cart.UpdateQuantity(ctx, fs.Arg(0), qty)
	fmt.Fprintf(c.out, "%d items in cart\n", c.app.Cart.TotalItems())
	return nil
}

func (c *cli) remove(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("remove <product-id>: %w", errUsage)
	}

	c.app.Cart.RemoveItem(ctx, fs.Arg(0))
	fmt.Fprintf(c.out, "%d items in cart\n", c.app.Cart.TotalItems())
	return nil
}

func (c *cli) clear(ctx context.Context, name string, args []string) error {
	if err := c.flags(name).Parse(args); err != nil {
		return err
	}

	c.app.Cart.Clear(ctx)
	fmt.Fprintln(c.out, "Cart cleared")
	return nil
}

func (c *cli) login(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	token := fs.String("token", "", "bearer token issued by the auth service")
	var user domain.User
	fs.StringVar(&user.ID, "id", "", "user id")
	fs.StringVar(&user.Email, "email", "", "email")
	fs.StringVar(&user.FirstName, "first", "", "first name")
	fs.StringVar(&user.LastName, "last", "", "last name")
	fs.StringVar(&user.Name, "name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.app.Session.Start(ctx, *token, user); err != nil {
		return fmt.Errorf("Session.Start: %w", err)
	}

	fmt.Fprintf(c.out, "Signed in as %s\n", user.DisplayName())
	return nil
}

func (c *cli) logout(ctx context.Context, name string, args []string) error {
	if err := c.flags(name).Parse(args); err != nil {
		return err
	}

	c.app.Session.Logout(ctx)
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

func (c *cli) checkout(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	var details checkout.Details
	fs.StringVar(&details.ShippingAddress, "address", "", "shipping address")
	payment := fs.String("payment", string(domain.PaymentCreditCard), "credit_card, debit_card or paypal")
	yes := fs.Bool("yes", false, "place the order without stopping at the confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	details.PaymentMethod = domain.PaymentMethod(*payment)

	if !c.app.Session.IsAuthenticated() {
		return errors.New("sign in before checking out")
	}

	conf, err := c.app.Flow.Begin(details)
	if err != nil {
		return fmt.Errorf("Flow.Begin: %w", err)
	}

	c.printCart(conf.Cart)
	fmt.Fprintf(c.out, "Payment: %s\n", conf.Request.PaymentMethod)
	if conf.Request.ShippingAddress != "" {
		fmt.Fprintf(c.out, "Ship to: %s\n", conf.Request.ShippingAddress)
	}

	if !*yes {
		if err := c.app.Flow.Cancel(); err != nil {
			return fmt.Errorf("Flow.Cancel: %w", err)
		}
		fmt.Fprintln(c.out, "Not submitted, re-run with -yes to place the order")
		return nil
	}

	res, err := c.app.Flow.Confirm(ctx)
	if err != nil {
		return fmt.Errorf("Flow.Confirm: %w", err)
	}
	if res.Err != nil {
		fmt.Fprintln(c.out, res.Message)
		return fmt.Errorf("order not placed: %w", res.Err)
	}

	fmt.Fprintf(c.out, "Order %s placed, status %s\n", res.Order.ID, res.Order.Status)
	if c.app.Flow.State() == order.StateSettled {
		if err := c.app.Flow.Reset(); err != nil {
			return fmt.Errorf("Flow.Reset: %w", err)
		}
	}
	return nil
}

func (c *cli) orders(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	id := fs.String("id", "", "show a single order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !c.app.Session.IsAuthenticated() {
		return errors.New("sign in to see your orders")
	}

	if *id != "" {
		o, err := c.app.API.GetOrder(ctx, *id)
		if err != nil {
			return fmt.Errorf("API.GetOrder: %w", err)
		}
		c.printOrder(o, true)
		return nil
	}

	list, err := c.app.API.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("API.ListOrders: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No orders yet")
		return nil
	}
	for _, o := range list {
		c.printOrder(o, false)
	}
	return nil
}

func (c *cli) printOrder(o domain.Order, withItems bool) {
	cur := c.app.Cart.Snapshot().Currency
	total := domain.Money{Amount: o.Total, Currency: cur}

	placed := "-"
	if !o.CreatedAt.IsZero() {
		placed = o.CreatedAt.Format("January 2, 2006")
	}
	fmt.Fprintf(c.out, "%s  %s  %s  %s\n", o.ID, placed, o.Status, total)

	if !withItems {
		return
	}
	for _, it := range o.Items {
		price := domain.Money{Amount: it.Price, Currency: cur}
		fmt.Fprintf(c.out, "  %s x%d  %s\n", it.Name, it.Quantity, price)
	}
}

func (c *cli) printCart(snapshot domain.Cart) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, l := range snapshot.Lines {
		total := domain.Money{Amount: l.Total(), Currency: snapshot.Currency}
		fmt.Fprintf(tw, "%s\t%s\tx%d\t%s\t\n", l.Product.ID, l.Product.Name, l.Quantity, total)
	}
	fmt.Fprintln(tw, "\t\t\t\t")
	for _, line := range checkout.ComputeBreakdown(snapshot).Lines() {
		fmt.Fprintf(tw, "\t%s\t\t%s\t\n", line.Label, line.Amount)
	}
	_ = tw.Flush()
}
