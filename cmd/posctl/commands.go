package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"storepos/backend/internal/domain"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and save the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			resp, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := a.saveSession(resp.AccessToken); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			return a.render(resp,
				table.Row{"User", "Role", "Expires"},
				[]table.Row{{username, resp.Role, resp.ExpiresAt}},
			)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "List and add products of a store"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.entities()
			if err != nil {
				return err
			}
			products, err := e.products.GetAll(cmd.Context(), a.storeID)
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(products))
			for _, p := range products {
				rows = append(rows, table.Row{p.ID, p.Name, p.Category, p.Quantity, p.Price, p.ExpiryDate})
			}
			return a.render(products, table.Row{"ID", "Name", "Category", "Qty", "Price", "Expiry"}, rows)
		},
	}

	var req domain.ProductCreateRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Name = strings.TrimSpace(req.Name)
			if req.Name == "" {
				return errors.New("--name is required")
			}
			if req.Quantity < 0 || req.Price < 0 {
				return errors.New("--quantity and --price must not be negative")
			}
			e, err := a.entities()
			if err != nil {
				return err
			}
			created, err := e.products.Add(cmd.Context(), a.storeID, domain.Product{
				Name:       req.Name,
				Quantity:   req.Quantity,
				Price:      req.Price,
				Category:   req.Category,
				ExpiryDate: req.ExpiryDate,
				StoreID:    a.storeID,
			})
			if err != nil {
				return err
			}
			return a.render(created,
				table.Row{"ID", "Name", "Qty", "Price"},
				[]table.Row{{created.ID, created.Name, created.Quantity, created.Price}},
			)
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "product name")
	add.Flags().IntVar(&req.Quantity, "quantity", 0, "units in stock")
	add.Flags().Float64Var(&req.Price, "price", 0, "unit price")
	add.Flags().StringVar(&req.Category, "category", "", "category")
	add.Flags().StringVar(&req.ExpiryDate, "expiry", "", "expiry date (YYYY-MM-DD)")

	cmd.AddCommand(list, add)
	return cmd
}

func newCustomersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "customers", Short: "List customers"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.entities()
			if err != nil {
				return err
			}
			customers, err := e.customers.GetAll(cmd.Context(), "")
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(customers))
			for _, c := range customers {
				rows = append(rows, table.Row{c.ID, c.Name, c.Phone, c.JoinDate, c.TotalPurchases})
			}
			return a.render(customers, table.Row{"ID", "Name", "Phone", "Joined", "Purchases"}, rows)
		},
	})
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Inspect orders, record payments and read revenue"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.entities()
			if err != nil {
				return err
			}
			orders, err := e.orders.GetAll(cmd.Context(), "")
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(orders))
			for _, o := range orders {
				payment := domain.PaymentStatusUnpaid
				if o.Payment != nil {
					payment = o.Payment.PaymentStatus
				}
				rows = append(rows, table.Row{o.ID, o.Date, o.StoreID, o.CustomerName, o.Status, payment, o.TotalAmount})
			}
			return a.render(orders, table.Row{"ID", "Date", "Store", "Customer", "Status", "Payment", "Total"}, rows)
		},
	}

	var date string
	revenue := &cobra.Command{
		Use:   "revenue",
		Short: "Revenue of completed orders on one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date == "" {
				date = time.Now().Format(time.DateOnly)
			}
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			e, err := a.entities()
			if err != nil {
				return err
			}
			total, err := e.orders.GetDailyRevenue(cmd.Context(), date)
			if err != nil {
				return err
			}
			result := domain.DailyRevenue{Date: date, Revenue: total}
			return a.render(result, table.Row{"Date", "Revenue"}, []table.Row{{result.Date, result.Revenue}})
		},
	}
	revenue.Flags().StringVar(&date, "date", "", "day to report (YYYY-MM-DD, default today)")

	var payment domain.PaymentRequest
	pay := &cobra.Command{
		Use:   "pay ORDER_ID",
		Short: "Record a payment against an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payment.Method = strings.ToLower(strings.TrimSpace(payment.Method))
			if payment.Amount <= 0 {
				return errors.New("--amount must be greater than zero")
			}
			if !domain.IsPaymentMethod(payment.Method) {
				return fmt.Errorf("unsupported payment method %q", payment.Method)
			}
			e, err := a.entities()
			if err != nil {
				return err
			}
			order, err := e.orders.AddPayment(cmd.Context(), args[0], domain.PaymentEntry{
				Amount: payment.Amount,
				Method: payment.Method,
				Note:   payment.Note,
			})
			if err != nil {
				return err
			}
			var paid, remaining float64
			status := domain.PaymentStatusUnpaid
			if order.Payment != nil {
				paid, remaining, status = order.Payment.TotalPaid, order.Payment.RemainingAmount, order.Payment.PaymentStatus
			}
			return a.render(order,
				table.Row{"ID", "Total", "Paid", "Remaining", "Payment"},
				[]table.Row{{order.ID, order.TotalAmount, paid, remaining, status}},
			)
		},
	}
	pay.Flags().Float64Var(&payment.Amount, "amount", 0, "amount paid")
	pay.Flags().StringVar(&payment.Method, "method", "cash", "cash, card, transfer or ewallet")
	pay.Flags().StringVar(&payment.Note, "note", "", "free-text note")

	cmd.AddCommand(list, revenue, pay)
	return cmd
}

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Compare and reconcile the server with the local data directory",
	}

	diff := &cobra.Command{
		Use:   "diff",
		Short: "Show records that differ between the server and the local copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.entities()
			if err != nil {
				return err
			}
			all := []divergence{}
			for _, s := range e.syncers(a.storeID) {
				found, err := s.diff(cmd.Context())
				if err != nil {
					return err
				}
				all = append(all, found...)
			}
			return a.render(all, table.Row{"Collection", "ID", "State"}, divergenceRows(all))
		},
	}

	push := &cobra.Command{
		Use:   "push",
		Short: "Replay local-only records through the API and drop the local copies",
		Long: "push sends every record that exists only in the local data directory to the server.\n" +
			"The server assigns new ids and applies its usual side effects, such as stock moves for orders.\n" +
			"Purchases pushed in the same run as their customer are sent with the customer's new id;\n" +
			"purchases of a customer pushed in an earlier run keep the old local id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.entities()
			if err != nil {
				return err
			}
			pushed := []divergence{}
			for _, s := range e.syncers(a.storeID) {
				done, err := s.push(cmd.Context())
				pushed = append(pushed, done...)
				if err != nil {
					_ = a.render(pushed, table.Row{"Collection", "ID", "State"}, divergenceRows(pushed))
					return err
				}
			}
			return a.render(pushed, table.Row{"Collection", "ID", "State"}, divergenceRows(pushed))
		},
	}

	cmd.AddCommand(diff, push)
	return cmd
}

func divergenceRows(items []divergence) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, d := range items {
		rows = append(rows, table.Row{d.Collection, d.ID, d.State})
	}
	return rows
}
