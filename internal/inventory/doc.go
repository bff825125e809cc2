// Package inventory holds the ordered catalog of inventory batches a search draws from.
// Batch ids are assigned in load order and that order is significant: it decides which
// selection survives when two selections reach the same total.
package inventory
