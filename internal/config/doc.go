// Package config loads the ocp4mco run configuration.
//
// The configuration is a YAML file read through viper. Scalar settings can be
// overridden with OCP4MCO_* environment variables, e.g.
// OCP4MCO_DEPLOYMENT_ODFVERSION=4.18. Wait budgets are read separately by
// [LoadTimeouts].
package config
