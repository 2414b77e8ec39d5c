// Command clipforge is the command-line interface for the ClipForge
// content assistant. It can run the content pipeline inline, drive video
// generation, and inspect a running clipforged daemon.
package main
