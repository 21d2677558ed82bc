package core

import (
	"strconv"
	"strings"
)

// Wire shapes sent to and received from the remote API.
type (
	CreateExpenseRequest struct {
		Title    string   `json:"title"`
		Amount   float64  `json:"amount"`
		Category Category `json:"category"`
		Date     string   `json:"date"`
		Notes    string   `json:"notes"`
	}

	UpdateExpenseRequest struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Amount   float64  `json:"amount"`
		Category Category `json:"category"`
		Date     string   `json:"date"`
		Notes    string   `json:"notes"`
	}

	FilterExpenseRequest struct {
		Category  string `json:"category,omitempty"`
		StartDate string `json:"startDate,omitempty"`
		EndDate   string `json:"endDate,omitempty"`
	}

	RegisterRequest struct {
		FullName     string `json:"fullName"`
		EmailAddress string `json:"emailAddress"`
		Password     string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AuthData struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Token    string `json:"token"`
	}

	AuthResponse struct {
		Message string    `json:"message"`
		Success *bool     `json:"success,omitempty"`
		Data    *AuthData `json:"data,omitempty"`
	}
)

// Failed reports an explicit success:false. An absent flag is not a failure.
func (r AuthResponse) Failed() bool {
	return r.Success != nil && !*r.Success
}

// NewFilterRequest builds the filter body. Dates are normalised to full ISO
// timestamps and the category is sent as its numeric value. Blank criteria
// are left unset, matching IsEmpty.
func NewFilterRequest(f FilterCriteria) (FilterExpenseRequest, error) {
	var req FilterExpenseRequest
	f.Category = strings.TrimSpace(f.Category)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	if f.Category != "" {
		c, err := ParseCategory(f.Category)
		if err != nil {
			return req, err
		}
		req.Category = strconv.Itoa(int(c))
	}
	if f.StartDate != "" {
		ts, err := ISOTimestamp(f.StartDate)
		if err != nil {
			return req, err
		}
		req.StartDate = ts
	}
	if f.EndDate != "" {
		ts, err := ISOTimestamp(f.EndDate)
		if err != nil {
			return req, err
		}
		req.EndDate = ts
	}
	return req, nil
}
