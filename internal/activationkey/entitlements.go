package activationkey

import "keyregistry/internal/models"

// DeriveDefaultEntitlements decides which entitlements a new key starts
// with. A key bound to a fully registered server inherits the server's
// entitlements; everything else, bootstrap servers included, gets the
// single enterprise entitlement.
func DeriveDefaultEntitlements(server *models.Server, enterprise models.ServerGroupType) []models.ServerGroupType {
	if server != nil && !server.IsBootstrap() && len(server.Entitlements) > 0 {
		out := make([]models.ServerGroupType, len(server.Entitlements))
		copy(out, server.Entitlements)
		return out
	}
	return []models.ServerGroupType{enterprise}
}
