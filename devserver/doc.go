// Package devserver is a development backend speaking the same wire contract
// as the production auth API.
//
// Routes:
//
//	POST /auth/register  create a user account (201, display user)
//	POST /auth/login     {"access_token", "user"} + refresh and CSRF cookies
//	POST /auth/refresh   new access token; needs refresh cookie and CSRF header
//	POST /auth/logout    revokes the refresh token and clears the cookies
//	GET  /users/me       full profile; needs a bearer access token
//
// Access tokens live 15 minutes and refresh tokens 7 days unless configured
// otherwise. Revoked refresh token ids are kept in Redis until the token
// would have expired anyway. Accounts live in memory.
package devserver
