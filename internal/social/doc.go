// Package social audits public social-media presence: Instagram
// profiles via their public pages and YouTube channels via the Data
// API v3.
package social
