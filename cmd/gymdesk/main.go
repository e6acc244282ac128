// Package main is the entry point for gymdesk.
//
//	@title						gymdesk - Gym Membership Billing
//	@version					1.0
//	@description				Front-desk API for members, monthly payments, delinquency reports and staff accounts.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				Session token (format: "Bearer {token}"); the session_token cookie is accepted too
package main

func main() {
	Execute()
}
