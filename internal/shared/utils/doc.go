// Package utils validates caller input before it reaches the embed and
// relay components: IDs, slugs, emails and JSON nesting.
package utils
