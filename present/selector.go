// Package present derives what a receive screen shows from the request
// materials. Nothing here talks to the wallet engine.
package present

import (
	"github.com/vitwit/receive/types"
)

// Receive returns the string to encode for flavor. A flavor that needs an
// invoice yields "" when the materials have none.
func Receive(flavor types.ReceiveFlavor, materials *types.RequestMaterials, uri string) string {
	if materials == nil {
		return ""
	}

	switch flavor {
	case types.FlavorUnified:
		if !materials.HasInvoice() {
			return ""
		}
		return uri
	case types.FlavorLightning:
		return materials.Invoice
	case types.FlavorOnchain:
		return materials.Address
	default:
		return ""
	}
}

// SelectableFlavors lists the flavors a user may pick for materials.
func SelectableFlavors(materials *types.RequestMaterials) []types.ReceiveFlavor {
	if materials == nil {
		return nil
	}
	if !materials.HasInvoice() {
		return []types.ReceiveFlavor{types.FlavorOnchain}
	}
	return append([]types.ReceiveFlavor(nil), types.AllFlavors...)
}

// IsSelectable reports whether flavor may be shown for materials.
func IsSelectable(flavor types.ReceiveFlavor, materials *types.RequestMaterials) bool {
	for _, f := range SelectableFlavors(materials) {
		if f == flavor {
			return true
		}
	}
	return false
}
