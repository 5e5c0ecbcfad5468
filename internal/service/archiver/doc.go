// Package archiver packs a bundle into a drag-to-install disk image.
//
// The bundle is staged in <dist>/dmg next to an Applications symlink, and
// hdiutil builds <dist>/<name>.dmg from that folder.
package archiver
