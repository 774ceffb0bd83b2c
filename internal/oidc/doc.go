/*
Package oidc discovers the JWKS endpoint of an OpenID Connect issuer.

The discovery document is read from

	<issuer>/.well-known/openid-configuration

and its "issuer" field must equal the issuer the caller expects. A document
that names another issuer is rejected, so a compromised or misrouted
discovery endpoint cannot redirect key lookups to a foreign key set.

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, issuerURL.String())
	if err != nil {
	    return err
	}
	jwksURI := endpoints.JWKSURI
*/
package oidc
