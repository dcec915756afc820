// Package keygen generates the SSH key pair written into install-config
// when a run does not bring its own public key.
//
// Private keys are PEM-encoded PKCS#1, public keys use the OpenSSH
// authorized_keys format.
package keygen
