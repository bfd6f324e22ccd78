package middleware

import (
	"testing"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

func TestBearerAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	ok := func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusAccepted) }

	cases := []struct {
		name   string
		hash   string
		header string
		want   int
	}{
		{"valid", string(hash), "Bearer s3cret", fasthttp.StatusAccepted},
		{"wrong token", string(hash), "Bearer nope", fasthttp.StatusUnauthorized},
		{"missing header", string(hash), "", fasthttp.StatusUnauthorized},
		{"basic scheme", string(hash), "Basic abc", fasthttp.StatusUnauthorized},
		{"empty token", string(hash), "Bearer   ", fasthttp.StatusUnauthorized},
		{"disabled", "", "Bearer s3cret", fasthttp.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			if tc.header != "" {
				ctx.Request.Header.Set("Authorization", tc.header)
			}
			BearerAuth(tc.hash)(ok)(&ctx)
			if got := ctx.Response.StatusCode(); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
