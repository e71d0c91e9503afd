// Package main provides the entry point for the webaudit CLI.
//
// webaudit is a website auditing tool. It crawls a site and checks SEO,
// accessibility, link health, structured data, robots.txt, HTTPS
// configuration, page speed, and image metadata privacy. It can also
// inspect public social media profiles.
//
// Usage:
//
//	webaudit audit <site-url>
//	webaudit audit --list <file>
//
// See --help for all available options.
package main

// main is the entry point for webaudit.
func main() {
	Execute()
}
