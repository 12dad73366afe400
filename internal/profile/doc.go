// Package profile defines the profile draft aggregate, its section records and
// the step/section vocabulary shared by the wizard, its stores and its hosts.
package profile
