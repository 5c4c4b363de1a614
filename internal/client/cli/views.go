package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/inventory-app/inventory-system/internal/client/api"
)

const dateLayout = "2006-01-02 15:04"

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.fd, "Password", a.out)
	if err != nil {
		return err
	}

	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return a.fail("login", err)
	}
	if err := a.session.Login(token); err != nil {
		return a.fail("login", err)
	}
	a.client.SetToken(token)

	a.println("Login successful.")
	return nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.fd, "Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.reader, a.fd, "Confirm password", a.out)
	if err != nil {
		return err
	}
	if password != confirm {
		a.println("Passwords do not match.")
		return errPasswordMismatch
	}

	msg, err := a.client.Register(ctx, username, password)
	if err != nil {
		return a.fail("register", err)
	}
	a.println(msg)
	a.println("You can now log in with 'login'.")
	return nil
}

func (a *App) Logout(context.Context) error {
	if err := a.session.Logout(); err != nil {
		return a.fail("logout", err)
	}
	a.client.SetToken("")
	a.println("Logged out.")
	return nil
}

// List fetches every item and renders it as a table.
func (a *App) List(ctx context.Context) error {
	items, err := a.client.ListItems(ctx)
	if err != nil {
		return a.fail("list", err)
	}
	if len(items) == 0 {
		a.println("No items yet. Use 'add' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tQUANTITY\tDATE ADDED\tID")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.Name, it.Quantity, it.DateAdded.Local().Format(dateLayout), it.ID)
	}
	return tw.Flush()
}

// Add submits a new item and returns to the list on success.
func (a *App) Add(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	qty, err := GetInt(a.reader, "Quantity", a.out, 0, false)
	if err != nil {
		return a.fail("add", err)
	}

	item, err := a.client.CreateItem(ctx, api.ItemInput{Name: name, Quantity: qty}, uuid.NewString())
	if err != nil {
		return a.fail("add", err)
	}
	a.printf("Added %q (%s).\n", item.Name, item.ID)
	return a.List(ctx)
}

// Edit prompts for new values, keeping the current ones on empty input, and
// returns to the list on success.
func (a *App) Edit(ctx context.Context, id string) error {
	id, err := a.itemID(id)
	if err != nil {
		return err
	}

	items, err := a.client.ListItems(ctx)
	if err != nil {
		return a.fail("edit", err)
	}
	var current *api.Item
	for i := range items {
		if items[i].ID == id {
			current = &items[i]
			break
		}
	}
	if current == nil {
		a.printf("No item with id %s.\n", id)
		return fmt.Errorf("item %s not found", id)
	}

	name, err := GetSimpleText(a.reader, fmt.Sprintf("Name [%s]", current.Name), a.out)
	if err != nil {
		return err
	}
	if name == "" {
		name = current.Name
	}
	qty, err := GetInt(a.reader, fmt.Sprintf("Quantity [%d]", current.Quantity), a.out, current.Quantity, true)
	if err != nil {
		return a.fail("edit", err)
	}

	if _, err := a.client.UpdateItem(ctx, id, api.ItemInput{Name: name, Quantity: qty}); err != nil {
		return a.fail("edit", err)
	}
	a.println("Item updated.")
	return a.List(ctx)
}

// Delete removes an item, then re-fetches and re-renders the list.
func (a *App) Delete(ctx context.Context, id string) error {
	id, err := a.itemID(id)
	if err != nil {
		return err
	}
	if err := a.client.DeleteItem(ctx, id); err != nil {
		return a.fail("delete", err)
	}
	a.println("Item deleted.")
	return a.List(ctx)
}

func (a *App) History(ctx context.Context, id string) error {
	id, err := a.itemID(id)
	if err != nil {
		return err
	}
	events, err := a.client.ItemHistory(ctx, id)
	if err != nil {
		return a.fail("history", err)
	}
	if len(events) == 0 {
		a.println("No history for this item.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tNAME\tQUANTITY\tBY")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.OccurredAt.Local().Format(time.RFC3339), e.Action, e.Name, e.Quantity, e.Actor)
	}
	return tw.Flush()
}

func (a *App) itemID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	id, err := GetSimpleText(a.reader, "Item id", a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		a.println("An item id is required.")
		return "", errors.New("empty item id")
	}
	return id, nil
}
