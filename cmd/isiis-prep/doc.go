// isiis-prep is a set of offline data-preparation commands for the ISIIS
// marine-imaging pipeline: extracting and converting video, matching frame
// timestamps against ROV-CTD depth logs, and curating image subsets.
package main
