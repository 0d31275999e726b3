package web

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alok/blog/internal/models"
)

func TestValidateRegisterForm(t *testing.T) {
	cases := []struct {
		name   string
		form   models.RegisterForm
		fields []string
	}{
		{"valid", models.RegisterForm{Username: "alok", Email: "alok@example.com", Password: "pw1", ConfirmPassword: "pw1"}, nil},
		{"short username", models.RegisterForm{Username: "a", Email: "alok@example.com", Password: "pw1", ConfirmPassword: "pw1"}, []string{"username"}},
		{"bad email", models.RegisterForm{Username: "alok", Email: "nope", Password: "pw1", ConfirmPassword: "pw1"}, []string{"email"}},
		{"mismatch", models.RegisterForm{Username: "alok", Email: "alok@example.com", Password: "pw1", ConfirmPassword: "pw2"}, []string{"confirm_password"}},
		{"empty", models.RegisterForm{}, []string{"username", "email", "password", "confirm_password"}},
	}
	for _, c := range cases {
		err := Validate(&c.form)
		if len(c.fields) == 0 {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", c.name, err)
			}
			continue
		}
		var fe FormErrors
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FormErrors, got %v", c.name, err)
		}
		for _, f := range c.fields {
			if len(fe[f]) == 0 {
				t.Fatalf("%s: missing error for %q in %v", c.name, f, fe)
			}
		}
		if len(fe) != len(c.fields) {
			t.Fatalf("%s: got errors for %v, want %v", c.name, fe, c.fields)
		}
	}
}

func TestValidateMessages(t *testing.T) {
	err := Validate(&models.PostForm{Title: strings.Repeat("x", 256)})
	fe, ok := err.(FormErrors)
	if !ok {
		t.Fatalf("expected FormErrors, got %v", err)
	}
	if got := fe["content"][0]; got != "This field is required." {
		t.Fatalf("content message = %q", got)
	}
	if got := fe["title"][0]; got != "Field cannot be longer than 255 characters." {
		t.Fatalf("title message = %q", got)
	}
}

func TestDecodeForm(t *testing.T) {
	body := url.Values{
		"email":      {"alok@example.com"},
		"password":   {"pw1"},
		"remember":   {"true"},
		"csrf_token": {"ignored"},
	}
	r := httptest.NewRequest("POST", "/login", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var form models.LoginForm
	if err := DecodeForm(r, &form); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if form.Email != "alok@example.com" || form.Password != "pw1" || !form.Remember {
		t.Fatalf("decoded %+v", form)
	}
}

func TestDecodeMultipartForm(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Hello")
	mw.WriteField("content", "from a multipart body")
	mw.WriteField("version", "3")
	mw.Close()

	r := httptest.NewRequest("POST", "/post/new", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	var form models.PostForm
	if err := DecodeForm(r, &form); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if form.Title != "Hello" || form.Content != "from a multipart body" || form.Version != 3 {
		t.Fatalf("decoded %+v", form)
	}
}
