// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package devserver

import "context"

type accountKey struct{}

func withAccount(ctx context.Context, acct *Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acct)
}

// accountFrom returns the account set by requireBearer. Only called from
// routes behind that middleware.
func accountFrom(ctx context.Context) *Account {
	acct, _ := ctx.Value(accountKey{}).(*Account)
	return acct
}
