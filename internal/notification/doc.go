// Package notification builds the transactional emails sent to users and
// defines the Mailer abstraction that delivers them.
package notification
