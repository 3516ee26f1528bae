package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/hllvc/dashctl/internal/api"
	"github.com/hllvc/dashctl/internal/app"
)

func needsCommand() *cli.Command {
	needFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "need title"},
		&cli.StringFlag{Name: "description", Usage: "need description"},
		&cli.IntFlag{Name: "amount", Usage: "target amount"},
		&cli.IntFlag{Name: "status", Usage: "status ID"},
		&cli.BoolFlag{Name: "urgent", Usage: "mark as urgent"},
	}

	return &cli.Command{
		Name:  "needs",
		Usage: "Manage donation needs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all needs",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					needs, err := a.Client.Needs(ctx)
					if err != nil {
						return err
					}

					rows := make([][]string, 0, len(needs))
					for _, n := range needs {
						rows = append(rows, []string{
							strconv.FormatInt(n.ID, 10),
							n.Title,
							strconv.Itoa(n.Amount),
							strconv.Itoa(n.Collected),
							strconv.FormatInt(n.StatusID, 10),
							strconv.FormatBool(n.Urgent),
						})
					}
					renderTable([]string{"ID", "Title", "Amount", "Collected", "Status", "Urgent"}, rows)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a need",
				Flags: needFlags,
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					created, err := a.Client.CreateNeed(ctx, needFromFlags(cmd))
					if err != nil {
						return err
					}
					fmt.Printf("Created need %d\n", created.ID)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Update a need",
				Flags: append([]cli.Flag{&cli.IntFlag{Name: "id", Usage: "need ID", Required: true}}, needFlags...),
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					need := needFromFlags(cmd)
					need.ID = int64(cmd.Int("id"))
					return a.Client.UpdateNeed(ctx, need)
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a need",
				Flags: []cli.Flag{&cli.IntFlag{Name: "id", Usage: "need ID", Required: true}},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.DeleteNeed(ctx, int64(cmd.Int("id")))
				}),
			},
		},
	}
}

func needFromFlags(cmd *cli.Command) api.Need {
	return api.Need{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Amount:      cmd.Int("amount"),
		StatusID:    int64(cmd.Int("status")),
		Urgent:      cmd.Bool("urgent"),
	}
}

func pagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "pages",
		Usage: "Manage CMS pages",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all pages",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					pages, err := a.Client.Pages(ctx)
					if err != nil {
						return err
					}

					rows := make([][]string, 0, len(pages))
					for _, p := range pages {
						rows = append(rows, []string{
							strconv.FormatInt(p.ID, 10),
							p.Slug,
							p.Title,
							strconv.FormatBool(p.Published),
							p.UpdatedAt.Format("2006-01-02 15:04"),
						})
					}
					renderTable([]string{"ID", "Slug", "Title", "Published", "Updated"}, rows)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Update a page",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "page ID", Required: true},
					&cli.StringFlag{Name: "slug", Usage: "page slug"},
					&cli.StringFlag{Name: "title", Usage: "page title"},
					&cli.StringFlag{Name: "content", Usage: "page content"},
					&cli.BoolFlag{Name: "published", Usage: "publish the page"},
				},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.UpdatePage(ctx, api.Page{
						ID:        int64(cmd.Int("id")),
						Slug:      cmd.String("slug"),
						Title:     cmd.String("title"),
						Content:   cmd.String("content"),
						Published: cmd.Bool("published"),
					})
				}),
			},
		},
	}
}

func statusesCommand() *cli.Command {
	statusFlags := []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "status name"},
		&cli.IntFlag{Name: "color", Usage: "color ID"},
	}

	return &cli.Command{
		Name:  "statuses",
		Usage: "Manage workflow statuses",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all statuses",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					statuses, err := a.Client.Statuses(ctx)
					if err != nil {
						return err
					}

					rows := make([][]string, 0, len(statuses))
					for _, s := range statuses {
						rows = append(rows, []string{
							strconv.FormatInt(s.ID, 10),
							s.Name,
							strconv.FormatInt(s.ColorID, 10),
						})
					}
					renderTable([]string{"ID", "Name", "Color"}, rows)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a status",
				Flags: statusFlags,
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					created, err := a.Client.CreateStatus(ctx, api.Status{
						Name:    cmd.String("name"),
						ColorID: int64(cmd.Int("color")),
					})
					if err != nil {
						return err
					}
					fmt.Printf("Created status %d\n", created.ID)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Update a status",
				Flags: append([]cli.Flag{&cli.IntFlag{Name: "id", Usage: "status ID", Required: true}}, statusFlags...),
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.UpdateStatus(ctx, api.Status{
						ID:      int64(cmd.Int("id")),
						Name:    cmd.String("name"),
						ColorID: int64(cmd.Int("color")),
					})
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a status",
				Flags: []cli.Flag{&cli.IntFlag{Name: "id", Usage: "status ID", Required: true}},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.DeleteStatus(ctx, int64(cmd.Int("id")))
				}),
			},
		},
	}
}

func colorsCommand() *cli.Command {
	colorFlags := []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "color name"},
		&cli.StringFlag{Name: "hex", Usage: "hex value, e.g. #ff8800"},
	}

	return &cli.Command{
		Name:  "colors",
		Usage: "Manage display colors",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all colors",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					colors, err := a.Client.Colors(ctx)
					if err != nil {
						return err
					}

					rows := make([][]string, 0, len(colors))
					for _, c := range colors {
						rows = append(rows, []string{
							strconv.FormatInt(c.ID, 10),
							c.Name,
							c.Hex,
						})
					}
					renderTable([]string{"ID", "Name", "Hex"}, rows)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Create a color",
				Flags: colorFlags,
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					created, err := a.Client.CreateColor(ctx, api.Color{
						Name: cmd.String("name"),
						Hex:  cmd.String("hex"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("Created color %d\n", created.ID)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Update a color",
				Flags: append([]cli.Flag{&cli.IntFlag{Name: "id", Usage: "color ID", Required: true}}, colorFlags...),
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.UpdateColor(ctx, api.Color{
						ID:   int64(cmd.Int("id")),
						Name: cmd.String("name"),
						Hex:  cmd.String("hex"),
					})
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete a color",
				Flags: []cli.Flag{&cli.IntFlag{Name: "id", Usage: "color ID", Required: true}},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.DeleteColor(ctx, int64(cmd.Int("id")))
				}),
			},
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "Manage donation orders",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all orders",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					orders, err := a.Client.Orders(ctx)
					if err != nil {
						return err
					}

					rows := make([][]string, 0, len(orders))
					for _, o := range orders {
						rows = append(rows, []string{
							strconv.FormatInt(o.ID, 10),
							strconv.FormatInt(o.NeedID, 10),
							o.CustomerName,
							string(o.CustomerEmail),
							strconv.Itoa(o.Quantity),
							o.Date.Format("2006-01-02"),
							strconv.FormatInt(o.StatusID, 10),
						})
					}
					renderTable([]string{"ID", "Need", "Customer", "Email", "Qty", "Date", "Status"}, rows)
					return nil
				}),
			},
			{
				Name:  "update",
				Usage: "Update an order's status or comment",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "order ID", Required: true},
					&cli.IntFlag{Name: "status", Usage: "status ID"},
					&cli.StringFlag{Name: "comment", Usage: "admin comment"},
				},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.UpdateOrder(ctx, api.Order{
						ID:       int64(cmd.Int("id")),
						StatusID: int64(cmd.Int("status")),
						Comment:  cmd.String("comment"),
					})
				}),
			},
			{
				Name:  "delete",
				Usage: "Delete an order",
				Flags: []cli.Flag{&cli.IntFlag{Name: "id", Usage: "order ID", Required: true}},
				Action: withApp(func(ctx context.Context, a *app.App, cmd *cli.Command) error {
					return a.Client.DeleteOrder(ctx, int64(cmd.Int("id")))
				}),
			},
		},
	}
}

// renderTable prints rows to stdout in the shared list style.
func renderTable(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
