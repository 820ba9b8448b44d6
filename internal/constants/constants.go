package constants

const (
	CMSGitBackend = "cms-git-backend"

	QueryParamAuthorizationCode     = "code"
	QueryParamClientID              = "client_id"
	QueryParamContentPrefix         = "prefix"
	QueryParamPostLogoutRedirectURI = "post_logout_redirect_uri"
	QueryParamRedirectURI           = "redirect_uri"
	QueryParamResponseType          = "response_type"
	QueryParamRoleCode              = "roleCode"
	QueryParamScopes                = "scope"
	QueryParamState                 = "state"

	AuthorizationServerGrantType    = "authorization_code"
	AuthorizationServerResponseType = "code"
	AuthorizationServerDefaultScope = "openid profile email"

	// Browser storage keys.
	StorageKeyToken       = "cms_oidc_token"
	StorageKeyTokenExpiry = "cms_oidc_token_expiry"
	StorageKeyUser        = "cms_oidc_user"
	StorageKeyState       = "cms_oidc_state"

	DefaultBranch        = "main"
	DefaultCommitMessage = "Edited with TinaCMS"
)
