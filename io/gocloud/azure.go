// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package gocloud

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	icebergio "github.com/pgiceberg/iceberg-lite/io"
	"gocloud.dev/blob"
	"gocloud.dev/blob/azureblob"
)

const adlsDefaultDomain = "blob.core.windows.net"

// parseAzureLocation splits abfs://container@account.dfs.core.windows.net/path
// into its container and account names.
func parseAzureLocation(parsed *url.URL) (containerName, account string, err error) {
	if parsed.User == nil || parsed.User.Username() == "" {
		return "", "", fmt.Errorf("azure location %s has no container", parsed.Redacted())
	}

	containerName = parsed.User.Username()
	account, _, _ = strings.Cut(parsed.Host, ".")

	return containerName, account, nil
}

func createAzureBucket(ctx context.Context, parsed *url.URL, props map[string]string) (*blob.Bucket, error) {
	containerName, account, err := parseAzureLocation(parsed)
	if err != nil {
		return nil, err
	}

	if name := props[icebergio.AdlsSharedKeyAccountName]; name != "" {
		account = name
	}

	opts := azureblob.NewDefaultServiceURLOptions()
	opts.AccountName = account
	opts.StorageDomain = adlsDefaultDomain
	if endpoint := props[icebergio.AdlsEndpoint]; endpoint != "" {
		opts.StorageDomain = endpoint
	}
	if protocol := props[icebergio.AdlsProtocol]; protocol != "" {
		opts.Protocol = protocol
	}

	sasTokens := propertiesWithPrefix(props, icebergio.AdlsSasTokenPrefix)
	if token, ok := sasTokens[account]; ok {
		opts.SASToken = token
	}

	svcURL, err := azureblob.NewServiceURL(opts)
	if err != nil {
		return nil, err
	}

	var client *container.Client
	if key := props[icebergio.AdlsSharedKeyAccountKey]; key != "" {
		cred, err := azblob.NewSharedKeyCredential(account, key)
		if err != nil {
			return nil, err
		}

		containerURL, err := url.JoinPath(string(svcURL), containerName)
		if err != nil {
			return nil, err
		}

		client, err = container.NewClientWithSharedKeyCredential(containerURL, cred, nil)
		if err != nil {
			return nil, err
		}
	} else {
		client, err = azureblob.NewDefaultClient(svcURL, azureblob.ContainerName(containerName))
		if err != nil {
			return nil, err
		}
	}

	return azureblob.OpenBucket(ctx, client, nil)
}

func propertiesWithPrefix(props map[string]string, prefix string) map[string]string {
	result := map[string]string{}
	for k, v := range props {
		if strings.HasPrefix(k, prefix) {
			result[strings.TrimPrefix(k, prefix)] = v
		}
	}

	return result
}
