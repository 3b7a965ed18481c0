// StorySpot - Location Story Music Recognition
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/storyspot

/*
Package config loads StorySpot configuration with koanf.

Three layers are merged, later layers winning:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/storyspot/config.yaml
 3. Environment variables listed in envMappings (unlisted variables are ignored)

# Required settings

  - DRIVE_ROOT_DIRECTORY_ID and Drive credentials (DRIVE_ACCESS_TOKEN, or
    DRIVE_CLIENT_ID + DRIVE_CLIENT_SECRET + DRIVE_REFRESH_TOKEN)
  - ACRCLOUD_BEARER_TOKEN and ACRCLOUD_CONTAINER_ID
  - RAPIDAPI_KEY

# Followed locations

FOLLOWED_LOCATIONS is a comma-separated list of Name:LocationID pairs:

	FOLLOWED_LOCATIONS=ArtClub:213385402,Pacha:1023948

Location names become directory names and the leading segments of mirrored
filenames. They may contain '-': the date, content id and username are read
from the end of the filename.

# Example YAML

	mirror:
	  root_directory_id: 1AbCdEf
	  client_id: xxx.apps.googleusercontent.com
	recognition:
	  container_id: "12345"
	  bucket_id: "6789"
	sync:
	  cooldown: 15m
	  time_zone: Europe/Madrid
*/
package config
