// Package commands defines the nebula CLI.
//
// Commands
//
//   - (none)      Run the terminal form
//   - fetch       GET the greeting from the echo API
//   - send        POST text to the echo API
//   - signin      Sign in and cache the session
//   - signup      Register an account
//   - confirm     Confirm a registration with the emailed code
//   - signout     Revoke and clear the cached session
//   - whoami      Show the signed-in user and hosted UI links
//   - configure   Write NEBULA_* settings to a .env file
//
// The root command loads the client configuration and builds the identity
// client, auth gateway and echo client before any subcommand runs.
package commands
