// Package platform is the HTTP client for the rewards platform API.
//
// Two calls matter:
//   - Login — POST /web/v1/auth/emailLogin with {email,password}, yielding an
//     Identity {email, user uuid, bearer token}
//   - Points — GET /web/v1/dashBoard/info with bearer auth, yielding the
//     account's total and today scores
//
// One Client is built per egress route so every call for a session leaves
// through that session's proxy. The user UUID in the login response is
// validated before the identity is accepted.
package platform
