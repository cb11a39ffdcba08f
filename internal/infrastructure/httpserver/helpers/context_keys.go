package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/identity"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
)

type ctxKey string

const (
	keyIdentity     ctxKey = "identity"
	keyUsageRequest ctxKey = "usage_request"
)

func SetIdentity(c echo.Context, id *identity.Identity) { c.Set(string(keyIdentity), id) }
func GetIdentityRaw(c echo.Context) (*identity.Identity, bool) {
	v := c.Get(string(keyIdentity))
	id, ok := v.(*identity.Identity)
	return id, ok
}

func SetUsageRequest(c echo.Context, req *usage.CreateRecordRequest) {
	c.Set(string(keyUsageRequest), req)
}
func GetUsageRequestRaw(c echo.Context) (*usage.CreateRecordRequest, bool) {
	v := c.Get(string(keyUsageRequest))
	req, ok := v.(*usage.CreateRecordRequest)
	return req, ok
}
