package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Need is a donation need shown on the public site and managed from the
// dashboard.
type Need struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Amount      int    `json:"amount"`
	Collected   int    `json:"collected"`
	StatusID    int64  `json:"status_id"`
	Urgent      bool   `json:"urgent"`
}

// Page is a CMS page edited from the dashboard. Pages are created by the
// backend; the client can only list and update them.
type Page struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is a workflow state applied to needs and orders.
type Status struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ColorID int64  `json:"color_id"`
}

// Color is a display color referenced by statuses.
type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Order is a donation order placed against a need. Orders are created by the
// public site; the dashboard lists, re-statuses, and deletes them.
type Order struct {
	ID            int64               `json:"id"`
	NeedID        int64               `json:"need_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail openapi_types.Email `json:"customer_email"`
	Quantity      int                 `json:"quantity"`
	Date          openapi_types.Date  `json:"date"`
	StatusID      int64               `json:"status_id"`
	Comment       string              `json:"comment,omitempty"`
}

// loginRequest is the credential payload for POST /login.
type loginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
	Remember bool                `json:"remember"`
}

// loginResponse carries the minted access token and the user's role. The
// refresh credential arrives separately as an HTTP-only cookie.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}
