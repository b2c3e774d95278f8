package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type loginForm struct {
	Username string `validate:"required,max=128"`
	Password string `validate:"required,max=256"`
}

type quantityForm struct {
	Quantity int `validate:"min=1,max=10"`
}

func parseLoginForm(r *http.Request, validate *validator.Validate) (loginForm, error) {
	if err := r.ParseForm(); err != nil {
		return loginForm{}, fmt.Errorf("invalid form: %w", err)
	}
	form := loginForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if err := validate.Struct(form); err != nil {
		return form, err
	}
	return form, nil
}

// parseQuantityForm reads the quantity field. A missing field means 1, as
// the quantity selector starts at 1.
func parseQuantityForm(r *http.Request, validate *validator.Validate) (quantityForm, error) {
	if err := r.ParseForm(); err != nil {
		return quantityForm{}, fmt.Errorf("invalid form: %w", err)
	}
	form := quantityForm{Quantity: 1}
	if raw := r.PostForm.Get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return form, fmt.Errorf("invalid quantity %q", raw)
		}
		form.Quantity = q
	}
	if err := validate.Struct(form); err != nil {
		return form, err
	}
	return form, nil
}
