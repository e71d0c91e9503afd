// Package model defines the data structures shared across the application.
//
// All audit results are plain structs with JSON tags so that every tool
// response can be serialized without adapter code. The package has no
// dependencies on other internal packages, which keeps the dependency
// graph acyclic: auditors produce model values, reports and storage
// consume them.
package model
