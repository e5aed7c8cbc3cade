// Command resetpw manages the server's single password account from
// the terminal.
//
// Usage:
//
//	resetpw <command>
//
// Commands:
//
//	reset   Replace the password. Requires that a password was already
//	        set up via the web interface; all existing sessions are
//	        invalidated.
//
//	status  Report whether a password is configured.
//
// Environment:
//
//	DATA_DIR - Directory holding vidvault.db (default: /data)
//
// Initial password setup happens through the web interface; this tool
// only resets an existing password.
package main
