// Command inline-resize rewrites image references such as
// "img/photo.jpg;400w" in HTML, CSS and JS files and produces the matching
// resized images.
//
// Subcommands:
//
//	build        run one pass from src into dest
//	watch        rebuild on an interval, reusing the in-memory cache
//	serve        expose runs and cache diagnostics over MCP on stdio
//	cache        run one pass and print the cache table
//	config init  write a sample configuration file
//	version      print build information
package main
