package vpn

import (
	"context"
	"errors"

	"github.com/yllada/vpn-profile/common"
)

// Builder resolves the public address and assembles a profile.
type Builder struct {
	Resolver     common.AddressResolver
	IDs          common.IDGenerator
	Organization Organization
}

// NewBuilder creates a Builder with random UUID identifiers.
func NewBuilder(resolver common.AddressResolver, org Organization) *Builder {
	return &Builder{
		Resolver:     resolver,
		IDs:          UUIDGenerator{},
		Organization: org,
	}
}

// Construct resolves the caller's public address, then builds the profile.
// If resolution fails no profile is produced and the error matches
// common.ErrResolution.
func (b *Builder) Construct(ctx context.Context, key, ssid, username string) (*Profile, error) {
	address, err := b.Resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, common.ErrResolution) {
			return nil, err
		}
		return nil, common.NewError(common.ErrResolution, "", err)
	}

	return Build(Input{
		Key:           key,
		SSID:          ssid,
		Username:      username,
		RemoteAddress: address,
		Organization:  b.Organization,
	}, b.IDs), nil
}
