// Package main hosts the ncmirtool CLI entrypoint and command graph.
//
// Each subcommand wraps one internal package: imagetokiosk drives the kiosk
// transfer pipeline, cilupload pushes a file to the Cell Image Library,
// mpidir and projectdir resolve acquisition directories, and projectsearch
// and mpidinfo query the project catalog. Configuration loading and logger
// construction happen here so the internal packages only see typed settings.
//
// Commands report their outcome through process exit codes; see the help of
// each command for the codes it uses.
package main
